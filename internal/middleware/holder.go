package middleware

// holder.go extracts the exhibitor's holder token. The token is
// generated client-side per form session and is opaque to the server:
// it identifies a claiming session, not a verified person. Handlers
// read it from the context; routes that mutate holds reject requests
// without one.

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// holderHeader is the request header carrying the session's claim token.
const holderHeader = "X-Holder-Token"

// holderContextKey is the echo.Context key the token is stored under.
const holderContextKey = "holder_token"

// maxHolderTokenLen bounds what we accept into claim rows and Redis keys.
const maxHolderTokenLen = 128

// ExtractHolder stores the X-Holder-Token header value, when present
// and well-formed, in the request context. It never rejects on its
// own: public reads work without a token.
func ExtractHolder() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := strings.TrimSpace(c.Request().Header.Get(holderHeader))
			if tok != "" && len(tok) <= maxHolderTokenLen {
				c.Set(holderContextKey, tok)
			}
			return next(c)
		}
	}
}

// RequireHolder rejects requests that carry no usable holder token.
// Applied to the hold/convert endpoints where a claimant identity,
// however opaque, is mandatory.
func RequireHolder() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HolderToken(c) == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing " + holderHeader + " header"})
			}
			return next(c)
		}
	}
}

// HolderToken returns the token extracted for this request, or "".
func HolderToken(c echo.Context) string {
	if v, ok := c.Get(holderContextKey).(string); ok {
		return v
	}
	return ""
}
