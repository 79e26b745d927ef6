package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/expocenter/stand-reservation/internal/repository"
	"github.com/expocenter/stand-reservation/internal/reservation"
)

// standID pulls the :id path parameter. Stand ids are short
// human-meaningful labels like "A-12"; anything longer than a label
// is rejected before it reaches the store.
func standID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" || len(id) > 32 {
		return "", false
	}
	return id, true
}

// coordinatorError translates coordinator and repository error kinds
// into HTTP responses. Every kind is an expected outcome of
// contention or stale client state; the messages are written for the
// form UI to show directly.
func coordinatorError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, reservation.ErrNotFound), errors.Is(err, repository.ErrStandNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stand not found"})
	case errors.Is(err, reservation.ErrAlreadyClaimed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "this stand was just taken, please choose another"})
	case errors.Is(err, reservation.ErrHoldLimit):
		return c.JSON(http.StatusConflict, echo.Map{"error": "release or submit your current stand before holding another"})
	case errors.Is(err, reservation.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "the stand changed while saving, please retry"})
	case errors.Is(err, reservation.ErrNotHolder):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not hold this stand"})
	case errors.Is(err, reservation.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "your hold expired, please re-select the stand"})
	case errors.Is(err, reservation.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation not allowed in the stand's current state"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
