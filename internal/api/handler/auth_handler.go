package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/api/middleware"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 24 * time.Hour
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("register", "invalid_input").Inc()
		return err
	}

	user, token, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.EmailID,
		Password:  req.Password,
	})
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("register", authFailure(err)).Inc()
		return err
	}

	metrics.AuthEventsTotal.WithLabelValues("register", "ok").Inc()
	h.setTokenCookie(c, token, h.cookie.MaxAge)
	return c.JSON(http.StatusCreated, authResponse{Message: "User signed up successfully", User: user})
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("login", "invalid_input").Inc()
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.EmailID, req.Password)
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("login", authFailure(err)).Inc()
		return err
	}

	metrics.AuthEventsTotal.WithLabelValues("login", "ok").Inc()
	h.setTokenCookie(c, token, h.cookie.MaxAge)
	return c.JSON(http.StatusOK, authResponse{Message: "Login successful", User: user})
}

// Logout clears the session cookie. Tokens are not revoked server-side.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.setTokenCookie(c, "", -1)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logout successful"})
}

// Profile returns the caller's account.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /api/user [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// setTokenCookie writes the session cookie; a negative maxAge deletes it.
func (h *AuthHandler) setTokenCookie(c echo.Context, token string, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	} else {
		cookie.MaxAge = int(maxAge.Seconds())
		cookie.Expires = time.Now().Add(maxAge)
	}
	c.SetCookie(cookie)
}

func authFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return "duplicate_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case domain.IsValidation(err):
		return "invalid_input"
	default:
		return "error"
	}
}
