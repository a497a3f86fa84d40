package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// StockChangeInput is the request for a purchase or restock.
type StockChangeInput struct {
	SweetID  string
	Quantity int
	// IdempotencyKey is optional; a repeated key does not change stock twice.
	IdempotencyKey string
}

// StockChangeResult is the sweet after a stock change.
type StockChangeResult struct {
	Sweet *domain.Sweet
	// Replayed is true when the idempotency key had already been used and
	// the stock was left untouched.
	Replayed bool
}

// InventoryService defines the stock transitions of a sweet.
type InventoryService interface {
	Purchase(ctx context.Context, p domain.Principal, in StockChangeInput) (*StockChangeResult, error)
	Restock(ctx context.Context, p domain.Principal, in StockChangeInput) (*StockChangeResult, error)
	Movements(ctx context.Context, p domain.Principal, sweetID string, limit int) ([]*domain.StockMovement, error)
}
