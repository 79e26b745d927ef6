package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expocenter/stand-reservation/internal/middleware"
	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/queue"
	"github.com/expocenter/stand-reservation/internal/repository"
	"github.com/expocenter/stand-reservation/internal/reservation"
	queue_publisher "github.com/expocenter/stand-reservation/internal/service"
)

// ReservationHandler exposes the exhibitor-facing claim operations:
// hold, release, extend, and convert-to-application. Every operation
// is keyed by the stand id from the path and the holder token the
// middleware extracted; the coordinator decides, the handler only
// translates.
type ReservationHandler struct {
	Coord  *reservation.Coordinator
	Stands repository.StandCatalog
}

// NewReservationHandler constructs a ReservationHandler. Both dependencies must be non-nil.
func NewReservationHandler(coord *reservation.Coordinator, stands repository.StandCatalog) *ReservationHandler {
	if coord == nil || stands == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Coord: coord, Stands: stands}
}

// ttlFromBody reads an optional ttl_seconds override. Zero means "use
// the configured default"; the coordinator clamps whatever arrives.
func ttlFromBody(c echo.Context) (time.Duration, bool) {
	if c.Request().ContentLength == 0 {
		return 0, true
	}
	var body struct {
		TTLSeconds int `json:"ttl_seconds"`
	}
	if err := c.Bind(&body); err != nil {
		return 0, false
	}
	if body.TTLSeconds < 0 {
		return 0, false
	}
	return time.Duration(body.TTLSeconds) * time.Second, true
}

// claimResponse shapes a claim for the claimant. The holder token is
// omitted — the caller already knows its own.
func claimResponse(cl *model.Claim) echo.Map {
	resp := echo.Map{
		"stand_id": cl.StandID,
		"status":   cl.Status,
		"version":  cl.Version,
	}
	if cl.ExpiresAt != nil {
		resp["expires_at"] = cl.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Acquire handles POST /v1/stands/:id/hold. On success the stand is
// held exclusively by this session until the TTL runs out, the client
// releases it, or the form is submitted.
func (h *ReservationHandler) Acquire(c echo.Context) error {
	id, ok := standID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	ttl, ok := ttlFromBody(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ttl_seconds"})
	}
	cl, err := h.Coord.Acquire(c.Request().Context(), id, middleware.HolderToken(c), ttl)
	if err != nil {
		return coordinatorError(c, err)
	}
	return c.JSON(http.StatusCreated, claimResponse(cl))
}

// Release handles DELETE /v1/stands/:id/hold. Releasing an already
// free stand succeeds, so clients fire it on page exit without
// checking state first.
func (h *ReservationHandler) Release(c echo.Context) error {
	id, ok := standID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	if err := h.Coord.Release(c.Request().Context(), id, middleware.HolderToken(c)); err != nil {
		return coordinatorError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}

// Touch handles PATCH /v1/stands/:id/hold. The form UI calls this
// while the exhibitor is still typing so a slow application does not
// lose its stand mid-form.
func (h *ReservationHandler) Touch(c echo.Context) error {
	id, ok := standID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	ttl, ok := ttlFromBody(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ttl_seconds"})
	}
	cl, err := h.Coord.Touch(c.Request().Context(), id, middleware.HolderToken(c), ttl)
	if err != nil {
		return coordinatorError(c, err)
	}
	return c.JSON(http.StatusOK, claimResponse(cl))
}

// SubmitApplication handles POST /v1/stands/:id/application. It
// converts the live hold into a pending application and hands the
// submitted form payload to the CRM layer over the broker. The queue
// publish happens after the claim transition has committed and off
// the request goroutine, so a slow broker never blocks the exhibitor
// or the stand.
func (h *ReservationHandler) SubmitApplication(c echo.Context) error {
	id, ok := standID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	var body struct {
		Form json.RawMessage `json:"form"`
		Note string          `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Form) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "form is required"})
	}
	holder := middleware.HolderToken(c)
	cl, err := h.Coord.ConvertToApplication(c.Request().Context(), id, holder, body.Note)
	if err != nil {
		return coordinatorError(c, err)
	}

	ev := queue.ApplicationSubmittedEvent{
		StandID:     cl.StandID,
		HolderToken: holder,
		Form:        body.Form,
		Version:     cl.Version,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if s, serr := h.Stands.Get(c.Request().Context(), id); serr == nil {
		ev.Category = s.Category
		ev.SizeM2 = s.SizeM2
		ev.PriceCents = s.PriceCents
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue_publisher.PublishApplicationSubmitted(ctx, ev); err != nil {
			log.Printf("reservation: application %s/%s queued for CRM failed: %v", ev.StandID, ev.HolderToken, err)
		}
	}()

	return c.JSON(http.StatusAccepted, claimResponse(cl))
}
