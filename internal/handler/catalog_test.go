package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expocenter/stand-reservation/internal/handler"
	"github.com/expocenter/stand-reservation/internal/model"
)

func TestListStands(t *testing.T) {
	h := newHarness(t)
	cat := handler.NewCatalogHandler(h.stands, h.claims)

	// A-1 carries a hold that expired a minute ago; the projection
	// must report it available even though no sweep has run.
	past := time.Now().UTC().Add(-time.Minute)
	acq := past.Add(-10 * time.Minute)
	require.NoError(t, h.claims.Update(t.Context(), "A-1", 1, model.Claim{
		Status:      model.StatusHeld,
		HolderToken: "tok-gone",
		AcquiredAt:  &acq,
		ExpiresAt:   &past,
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/stands", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, cat.ListStands(h.e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	stands, ok := body["stands"].([]any)
	require.True(t, ok)
	require.Len(t, stands, 2)

	first := stands[0].(map[string]any)
	assert.Equal(t, "A-1", first["id"])
	assert.Equal(t, string(model.StatusAvailable), first["status"])
	assert.Empty(t, first["expires_at"])
	assert.NotContains(t, first, "holder_token", "public view must not leak tokens")

	second := stands[1].(map[string]any)
	assert.Equal(t, "A-2", second["id"])
	assert.Equal(t, string(model.StatusAvailable), second["status"])
}

func TestGetStand(t *testing.T) {
	h := newHarness(t)
	cat := handler.NewCatalogHandler(h.stands, h.claims)

	t.Run("live hold shows held with its deadline", func(t *testing.T) {
		c, _ := h.request(http.MethodPost, "A-1", "tok-x", "")
		require.NoError(t, h.res.Acquire(c))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c = h.e.NewContext(req, rec)
		c.SetPath("/v1/stands/:id")
		c.SetParamNames("id")
		c.SetParamValues("A-1")
		require.NoError(t, cat.GetStand(c))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, string(model.StatusHeld), body["status"])
		assert.NotEmpty(t, body["expires_at"])
		assert.Equal(t, "premium", body["category"])
	})

	t.Run("unknown stand returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := h.e.NewContext(req, rec)
		c.SetPath("/v1/stands/:id")
		c.SetParamNames("id")
		c.SetParamValues("Z-9")
		require.NoError(t, cat.GetStand(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
