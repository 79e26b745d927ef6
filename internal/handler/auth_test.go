package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expocenter/stand-reservation/internal/handler"
	"github.com/expocenter/stand-reservation/internal/utils"
)

func loginRequest(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLogin(t *testing.T) {
	e := echo.New()
	hash, err := utils.HashPassword("organizer-secret", 4) // low cost for tests
	require.NoError(t, err)
	h := handler.NewAuthHandler("test-signing-key", "admin@expo.example", hash, 15)

	t.Run("valid credentials yield an ADMIN token", func(t *testing.T) {
		c, rec := loginRequest(e, `{"email":"Admin@Expo.example","password":"organizer-secret"}`)
		require.NoError(t, h.Login(c))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		raw, _ := body["access_token"].(string)
		require.NotEmpty(t, raw)

		tok, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
			return []byte("test-signing-key"), nil
		})
		require.NoError(t, err)
		claims := tok.Claims.(jwt.MapClaims)
		assert.Equal(t, "ADMIN", claims["role"])
		assert.Equal(t, "admin@expo.example", claims["sub"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		c, rec := loginRequest(e, `{"email":"admin@expo.example","password":"nope"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong email is indistinguishable from wrong password", func(t *testing.T) {
		c, rec := loginRequest(e, `{"email":"other@expo.example","password":"organizer-secret"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decode(t, rec)["error"])
	})
}
