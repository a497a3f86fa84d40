package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/middleware"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// currentUser returns the user resolved by the Authenticate middleware and
// fails fast with domain.ErrUnauthenticated when the middleware did not run.
func currentUser(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// principal is the caller identity passed into service calls. It is the zero
// Principal for anonymous requests, which services reject.
func principal(c echo.Context) domain.Principal {
	if u := middleware.CurrentUser(c); u != nil {
		return u.Principal()
	}
	return domain.Principal{}
}

// bindAndValidate decodes the request body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("", "invalid payload")
	}
	return c.Validate(req)
}
