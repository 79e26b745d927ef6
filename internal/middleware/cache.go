package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/expocenter/stand-reservation/internal/config"
)

// cachedResponse is the Redis-stored envelope for one catalog response.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body into a buffer (up to limit)
// while forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.buf.Len() < cw.limit {
		n := cw.limit - cw.buf.Len()
		if n > len(b) {
			n = len(b)
		}
		cw.buf.Write(b[:n])
	}
	return cw.ResponseWriter.Write(b)
}

// NewCatalogCache caches successful GET responses for a few seconds.
// The catalog read is the hottest path (every connected floor-plan
// view refetches it on reconnect and on version gaps), while the
// short TTL keeps the availability view close to the claim store;
// live convergence comes from the event stream, not the cache.
//
// A client resyncing after a version gap needs a read at least as
// fresh as the event that triggered it, so requests carrying
// Cache-Control: no-cache skip the lookup and go to the store; the
// fresh response still refreshes the stored copy for everyone else.
func NewCatalogCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			bypass := resyncRequest(c.Request())
			if !bypass {
				if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
					var cached cachedResponse
					if json.Unmarshal(raw, &cached) == nil && cached.Status == http.StatusOK {
						c.Response().Header().Set(echo.HeaderContentType, cached.ContentType)
						c.Response().Header().Set("X-Cache", "HIT")
						return c.Blob(cached.Status, cached.ContentType, cached.Body)
					}
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			if bypass {
				c.Response().Header().Set("X-Cache", "BYPASS")
			} else {
				c.Response().Header().Set("X-Cache", "MISS")
			}

			if err := next(c); err != nil {
				return err
			}

			// Only complete 200 responses are cached; an oversized body
			// was truncated by the writer and must not be stored.
			if cw.status == http.StatusOK && cw.buf.Len() < cfg.MaxBodyBytes {
				raw, err := json.Marshal(cachedResponse{
					Status:      cw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        cw.buf.Bytes(),
				})
				if err == nil {
					_ = rdb.SetEx(context.Background(), key, raw, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

// resyncRequest reports whether the client explicitly asked for a
// fresh read. Event-stream consumers send Cache-Control: no-cache on
// the catalog refetch that follows a detected version gap.
func resyncRequest(r *http.Request) bool {
	if strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache") {
		return true
	}
	return r.Header.Get("Pragma") == "no-cache"
}

// cacheKey hashes the request path + query under the configured
// prefix. The concrete URL path, not the route pattern: each stand's
// detail page caches separately.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Request().URL.Path + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// Invalidate drops every cached entry under the prefix. Called after
// admin provisioning so a new stand shows up without waiting out the
// TTL. Uses SCAN rather than KEYS to stay polite to a shared Redis.
func Invalidate(ctx context.Context, rdb *redis.Client, prefix string) {
	if rdb == nil {
		return
	}
	iter := rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		_ = rdb.Del(ctx, iter.Val()).Err()
	}
	_ = iter.Err()
}
