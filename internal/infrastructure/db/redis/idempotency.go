package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const (
	idempotencyTTL = 24 * time.Hour
	// A pending claim outlives any single request but not a crashed one.
	pendingTTL = time.Minute
	// Attempts at SET NX when the existing key expires between SET and GET.
	claimAttempts = 2
)

// IdempotencyGuard remembers client-supplied idempotency keys in Redis.
// Key format: idem:<scope>:<key>, value: JSON ports.IdempotencyRecord.
type IdempotencyGuard struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewIdempotencyGuard creates an IdempotencyGuard wrapping the given Redis client.
func NewIdempotencyGuard(client *redis.Client) *IdempotencyGuard {
	return &IdempotencyGuard{client: client, ttl: idempotencyTTL, pendingTTL: pendingTTL}
}

// Claim stores a pending record with SET NX. When the key already exists the
// stored record is returned instead.
func (g *IdempotencyGuard) Claim(ctx context.Context, scope, key string, quantity int) (bool, ports.IdempotencyRecord, error) {
	k := g.key(scope, key)
	pending, err := encodeRecord(ports.IdempotencyRecord{Status: ports.IdempotencyPending, Quantity: quantity})
	if err != nil {
		return false, ports.IdempotencyRecord{}, err
	}

	for attempt := 0; attempt < claimAttempts; attempt++ {
		ok, err := g.client.SetNX(ctx, k, pending, g.pendingTTL).Result()
		if err != nil {
			return false, ports.IdempotencyRecord{}, fmt.Errorf("idempotency claim: %w", err)
		}
		if ok {
			return true, ports.IdempotencyRecord{}, nil
		}

		raw, err := g.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, ports.IdempotencyRecord{}, fmt.Errorf("idempotency lookup: %w", err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return false, ports.IdempotencyRecord{}, err
		}
		return false, rec, nil
	}
	return false, ports.IdempotencyRecord{}, fmt.Errorf("idempotency claim: key %s churned", k)
}

// Commit overwrites the pending record and extends it to the full TTL.
func (g *IdempotencyGuard) Commit(ctx context.Context, scope, key string, quantity int) error {
	done, err := encodeRecord(ports.IdempotencyRecord{Status: ports.IdempotencyCommitted, Quantity: quantity})
	if err != nil {
		return err
	}
	if err := g.client.Set(ctx, g.key(scope, key), done, g.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency commit: %w", err)
	}
	return nil
}

// Release deletes a claim so the operation may be retried with the same key.
func (g *IdempotencyGuard) Release(ctx context.Context, scope, key string) error {
	if err := g.client.Del(ctx, g.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (g *IdempotencyGuard) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

func encodeRecord(rec ports.IdempotencyRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("idempotency encode: %w", err)
	}
	return string(b), nil
}

func decodeRecord(raw string) (ports.IdempotencyRecord, error) {
	var rec ports.IdempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("idempotency decode: %w", err)
	}
	switch rec.Status {
	case ports.IdempotencyPending, ports.IdempotencyCommitted:
		return rec, nil
	default:
		return rec, fmt.Errorf("idempotency decode: unknown status %q", rec.Status)
	}
}
