package ports

import "context"

// IdempotencyStatus is the lifecycle stage of a claimed idempotency key.
type IdempotencyStatus string

const (
	// IdempotencyPending marks a key whose operation has not finished yet.
	IdempotencyPending IdempotencyStatus = "pending"
	// IdempotencyCommitted marks a key whose operation succeeded.
	IdempotencyCommitted IdempotencyStatus = "committed"
)

// IdempotencyRecord is what is stored under a claimed key.
type IdempotencyRecord struct {
	Status   IdempotencyStatus `json:"status"`
	Quantity int               `json:"quantity"`
}

// IdempotencyGuard remembers client-supplied idempotency keys.
type IdempotencyGuard interface {
	// Claim stores a pending record for key under scope. When the key is
	// already known it returns false together with the stored record.
	Claim(ctx context.Context, scope, key string, quantity int) (bool, IdempotencyRecord, error)
	// Commit marks a claimed key as succeeded so later requests replay it.
	Commit(ctx context.Context, scope, key string, quantity int) error
	// Release forgets a claim so the client may retry a failed operation.
	Release(ctx context.Context, scope, key string) error
}
