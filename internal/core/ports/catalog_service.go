package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// CreateSweetInput carries the fields of a new catalog item. Optional
// fields left nil take their defaults.
type CreateSweetInput struct {
	Name        string
	Category    string
	Price       float64
	Stock       int
	Description string
	Ingredients []string
	ImageURL    string
	Rating      *float64
	IsAvailable *bool
}

// CatalogService defines catalog reads and admin edits.
type CatalogService interface {
	List(ctx context.Context) ([]*domain.Sweet, error)
	Search(ctx context.Context, filter domain.SweetFilter) ([]*domain.Sweet, error)
	Get(ctx context.Context, id string) (*domain.Sweet, error)
	Create(ctx context.Context, p domain.Principal, in CreateSweetInput) (*domain.Sweet, error)
	Update(ctx context.Context, p domain.Principal, id string, patch domain.SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, p domain.Principal, id string) error
}
