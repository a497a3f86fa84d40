package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// SweetRepository is the catalog store. Every mutation touches exactly one
// document and is atomic with respect to it.
type SweetRepository interface {
	Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error)
	FindByID(ctx context.Context, id string) (*domain.Sweet, error)
	// List returns the sweets matching filter in insertion order.
	List(ctx context.Context, filter domain.SweetFilter) ([]*domain.Sweet, error)
	// Update applies patch and returns the updated document.
	Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error

	// DecrementStock subtracts quantity only if the current stock covers it,
	// marking the sweet unavailable when stock reaches zero. Returns
	// domain.ErrInsufficientStock without modifying the document otherwise.
	DecrementStock(ctx context.Context, id string, quantity int) (*domain.Sweet, error)
	// IncrementStock adds quantity and marks the sweet available.
	IncrementStock(ctx context.Context, id string, quantity int) (*domain.Sweet, error)
}
