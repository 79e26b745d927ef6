package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/repository"
)

// CatalogHandler serves the public availability view: catalog facts
// joined with each stand's live claim status. It is read-only and
// never exposes holder tokens.
type CatalogHandler struct {
	Stands repository.StandCatalog
	Claims repository.ClaimStore
}

// NewCatalogHandler constructs a CatalogHandler. Both dependencies must be non-nil.
func NewCatalogHandler(stands repository.StandCatalog, claims repository.ClaimStore) *CatalogHandler {
	if stands == nil || claims == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Stands: stands, Claims: claims}
}

// standView is one row of the availability projection. Status is the
// effective status: a hold past its deadline reads AVAILABLE even
// before the sweeper reverts the row, so the floor plan never paints
// a free stand as taken.
type standView struct {
	model.Stand
	Status    model.ClaimStatus `json:"status"`
	Version   uint64            `json:"version"`
	ExpiresAt string            `json:"expires_at,omitempty"`
}

func toView(s model.Stand, cl *model.Claim, now time.Time) standView {
	v := standView{Stand: s, Status: cl.EffectiveStatus(now), Version: cl.Version}
	if v.Status == model.StatusHeld && cl.ExpiresAt != nil {
		v.ExpiresAt = cl.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return v
}

// ListStands handles GET /v1/stands.
func (h *CatalogHandler) ListStands(c echo.Context) error {
	ctx := c.Request().Context()
	stands, err := h.Stands.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	claims, err := h.Claims.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	byStand := make(map[string]*model.Claim, len(claims))
	for i := range claims {
		byStand[claims[i].StandID] = &claims[i]
	}
	now := time.Now().UTC()
	views := make([]standView, 0, len(stands))
	for _, s := range stands {
		cl, ok := byStand[s.ID]
		if !ok {
			// A stand without a claim row violates provisioning; report
			// it unavailable rather than invite acquires that will 500.
			cl = &model.Claim{StandID: s.ID, Status: model.StatusOccupied}
		}
		views = append(views, toView(s, cl, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"stands": views})
}

// GetStand handles GET /v1/stands/:id.
func (h *CatalogHandler) GetStand(c echo.Context) error {
	id, ok := standID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stand id"})
	}
	ctx := c.Request().Context()
	s, err := h.Stands.Get(ctx, id)
	if err != nil {
		return coordinatorError(c, err)
	}
	cl, err := h.Claims.Get(ctx, id)
	if err != nil {
		return coordinatorError(c, err)
	}
	return c.JSON(http.StatusOK, toView(*s, cl, time.Now().UTC()))
}
