package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expocenter/stand-reservation/internal/middleware"
)

func runChain(t *testing.T, header string, mws ...echo.MiddlewareFunc) (echo.Context, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if header != "" {
		req.Header.Set("X-Holder-Token", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := echo.HandlerFunc(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return c, rec, h(c)
}

func TestExtractHolder(t *testing.T) {
	t.Run("header value lands in the context", func(t *testing.T) {
		c, _, err := runChain(t, "  form-session-123  ", middleware.ExtractHolder())
		require.NoError(t, err)
		assert.Equal(t, "form-session-123", middleware.HolderToken(c))
	})

	t.Run("absent header leaves the context empty", func(t *testing.T) {
		c, _, err := runChain(t, "", middleware.ExtractHolder())
		require.NoError(t, err)
		assert.Empty(t, middleware.HolderToken(c))
	})

	t.Run("oversized tokens are ignored", func(t *testing.T) {
		c, _, err := runChain(t, strings.Repeat("x", 200), middleware.ExtractHolder())
		require.NoError(t, err)
		assert.Empty(t, middleware.HolderToken(c))
	})
}

func TestRequireHolder(t *testing.T) {
	t.Run("passes with a token", func(t *testing.T) {
		_, rec, err := runChain(t, "form-session-123", middleware.ExtractHolder(), middleware.RequireHolder())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects without a token", func(t *testing.T) {
		_, rec, err := runChain(t, "", middleware.ExtractHolder(), middleware.RequireHolder())
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
