package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestResyncRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/stands", nil)
	assert.False(t, resyncRequest(req))

	req.Header.Set("Cache-Control", "no-cache")
	assert.True(t, resyncRequest(req))

	req.Header.Set("Cache-Control", "max-age=0, No-Cache")
	assert.True(t, resyncRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/v1/stands", nil)
	req.Header.Set("Pragma", "no-cache")
	assert.True(t, resyncRequest(req))
}

func TestCacheKeyUsesConcretePath(t *testing.T) {
	e := echo.New()
	ctxFor := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/stands/:id")
		return c
	}

	a := cacheKey("cache", ctxFor("/v1/stands/A-1"))
	b := cacheKey("cache", ctxFor("/v1/stands/A-2"))
	assert.NotEqual(t, a, b, "two stands must not share a cache entry")
	assert.Equal(t, a, cacheKey("cache", ctxFor("/v1/stands/A-1")))
}
