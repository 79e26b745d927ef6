package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expocenter/stand-reservation/internal/utils"
)

// AuthHandler implements the organizer login. There is a single
// configured back-office account (email plus bcrypt hash from the
// environment); exhibitors never authenticate — their claims ride on
// the opaque holder token instead.
type AuthHandler struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassHash string
	AccessTTLMin  int
}

// NewAuthHandler constructs an AuthHandler from the loaded config values.
func NewAuthHandler(secret, email, hash string, ttlMin int) *AuthHandler {
	return &AuthHandler{JWTSecret: secret, AdminEmail: email, AdminPassHash: hash, AccessTTLMin: ttlMin}
}

// Login handles POST /v1/auth/login. On a matching email/password it
// returns an ADMIN-role access token for the approval endpoints. The
// response is identical for a wrong email and a wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email != strings.ToLower(h.AdminEmail) || !utils.CheckPassword(h.AdminPassHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, email, "ADMIN", h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}
