package domain

import "time"

// MovementKind identifies the inventory transition that produced a movement.
type MovementKind string

const (
	MovementPurchase MovementKind = "purchase"
	MovementRestock  MovementKind = "restock"
)

// StockMovement is one entry in a sweet's append-only inventory ledger.
type StockMovement struct {
	ID         string       `json:"_id"`
	SweetID    string       `json:"sweetId"`
	Kind       MovementKind `json:"kind"`
	Quantity   int          `json:"quantity"`
	StockAfter int          `json:"stockAfter"`
	UserID     string       `json:"userId"`
	At         time.Time    `json:"at"`
}
