package middleware

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// ValidObjectID rejects requests whose path parameter is not a 24-character
// hex ObjectID before any store access.
func ValidObjectID(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !primitive.IsValidObjectID(c.Param(param)) {
				return domain.ErrInvalidID
			}
			return next(c)
		}
	}
}
