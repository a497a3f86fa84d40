package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

type errorMapping struct {
	target error
	code   int
	msg    string
}

// sentinels is checked in order with errors.Is.
var sentinels = []errorMapping{
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "Invalid quantity"},
	{domain.ErrInsufficientStock, http.StatusBadRequest, "Insufficient stock"},
	{domain.ErrInvalidID, http.StatusBadRequest, "Invalid sweet ID format"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrSweetNotFound, http.StatusNotFound, "Sweet not found"},
	{domain.ErrUserExists, http.StatusConflict, "Email already registered"},
	{domain.ErrIdempotencyInFlight, http.StatusConflict, "A request with this Idempotency-Key is still in progress"},
	{domain.ErrIdempotencyMismatch, http.StatusConflict, "Idempotency-Key was already used with a different quantity"},
}

// NewHTTPErrorHandler renders every error returned by a handler or middleware
// as {"error": "<message>"}. Unknown errors become a 500 whose cause is only
// logged.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Already rendered further down the chain (metrics middleware).
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorBody{Error: msg})
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	for _, m := range sentinels {
		if errors.Is(err, m.target) {
			return m.code, m.msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
