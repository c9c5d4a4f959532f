package quill

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/quill/blog"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
}

var errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")

// handleLogin checks an email/password pair against the users table and, on
// success, writes the identity into the session cookie.
func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	var req loginRequest
	if err := blog.Decode(c.Request().Body, &req); err != nil {
		return err
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		a.loginLimiter.Record(ip)
		return errBadCredentials
	}

	u, err := a.Store.GetUserByEmail(c.Request().Context(), email)
	if errors.Is(err, blog.ErrNotFound) {
		a.loginLimiter.Record(ip)
		return errBadCredentials
	}
	if err != nil {
		return err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		a.loginLimiter.Record(ip)
		log.Warn().Str("email", email).Str("remote_ip", ip).Msg("failed login")
		return errBadCredentials
	}

	if err := setSessionIdentity(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Success: true, Email: u.Email, Role: u.Role})
}

func handleLogout(c echo.Context) error {
	if err := clearSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Success: true})
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
