package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// RegisterInput carries the self-service signup fields.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type AuthService interface {
	// Register creates a user with the default role and returns it with a fresh token.
	Register(ctx context.Context, in RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Authenticate resolves a bearer token to its user. Every failure other
	// than a store outage is reported as domain.ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
