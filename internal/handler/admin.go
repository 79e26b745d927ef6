package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/expocenter/stand-reservation/internal/middleware"
	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/repository"
	"github.com/expocenter/stand-reservation/internal/reservation"
)

// AdminHandler exposes the organizer back office: catalog
// provisioning, the full claim table, and the approval decisions that
// finalize or reject submitted applications. All routes behind it
// require an ADMIN JWT.
type AdminHandler struct {
	Stands      repository.StandCatalog
	Claims      repository.ClaimStore
	Coord       *reservation.Coordinator
	Redis       *redis.Client // may be nil; used for cache invalidation only
	CachePrefix string
}

// NewAdminHandler constructs an AdminHandler. Redis may be nil.
func NewAdminHandler(stands repository.StandCatalog, claims repository.ClaimStore, coord *reservation.Coordinator, rdb *redis.Client, cachePrefix string) *AdminHandler {
	if stands == nil || claims == nil || coord == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Stands: stands, Claims: claims, Coord: coord, Redis: rdb, CachePrefix: cachePrefix}
}

// ProvisionStands handles POST /v1/admin/stands. It bulk-loads the
// floor plan: each stand is created with its AVAILABLE claim row.
// Stands that already exist are reported back and skipped, so the
// endpoint can be re-run with an updated floor-plan file.
func (h *AdminHandler) ProvisionStands(c echo.Context) error {
	var body struct {
		Stands []model.Stand `json:"stands"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Stands) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stands is required"})
	}
	ctx := c.Request().Context()
	created := make([]string, 0, len(body.Stands))
	var existing []string
	for _, s := range body.Stands {
		if s.ID == "" || len(s.ID) > 32 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id", "stand_id": s.ID})
		}
		err := h.Stands.Create(ctx, s)
		switch {
		case errors.Is(err, repository.ErrDuplicateStand):
			existing = append(existing, s.ID)
		case err != nil:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		default:
			created = append(created, s.ID)
		}
	}
	middleware.Invalidate(ctx, h.Redis, h.CachePrefix)
	return c.JSON(http.StatusCreated, echo.Map{"created": created, "existing": existing})
}

// ListClaims handles GET /v1/admin/claims. Unlike the public catalog
// it returns the raw claim rows, holder tokens and notes included,
// for the back-office table.
func (h *AdminHandler) ListClaims(c echo.Context) error {
	claims, err := h.Claims.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"claims": claims})
}

// Approve handles POST /v1/admin/stands/:id/approve: the pending
// application becomes final and the stand reads OCCUPIED.
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.decide(c, h.Coord.Approve)
}

// Reject handles POST /v1/admin/stands/:id/reject: the pending
// application is declined and the stand returns to the pool.
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.decide(c, h.Coord.Reject)
}

// ForceRelease handles POST /v1/admin/stands/:id/force-release, the
// explicit cancellation path for an occupied stand (e.g. a withdrawn
// exhibitor). Nothing else reverts OCCUPIED.
func (h *AdminHandler) ForceRelease(c echo.Context) error {
	return h.decide(c, h.Coord.ForceRelease)
}

// decide shares the shape of the three single-stand admin transitions.
func (h *AdminHandler) decide(c echo.Context, op func(ctx context.Context, standID string) (*model.Claim, error)) error {
	id, ok := standID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	cl, err := op(c.Request().Context(), id)
	if err != nil {
		return coordinatorError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stand_id": cl.StandID,
		"status":   cl.Status,
		"version":  cl.Version,
	})
}
