package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 200
)

type stockMutator func(ctx context.Context, id string, quantity int) (*domain.Sweet, error)

// InventoryService performs purchases and restocks. The movement ledger and
// idempotency guard are optional; a nil value disables the feature.
type InventoryService struct {
	sweets    ports.SweetRepository
	movements ports.MovementRepository
	guard     ports.IdempotencyGuard
	logger    zerolog.Logger
	now       func() time.Time
}

func NewInventoryService(
	sweets ports.SweetRepository,
	movements ports.MovementRepository,
	guard ports.IdempotencyGuard,
	logger zerolog.Logger,
) *InventoryService {
	return &InventoryService{
		sweets:    sweets,
		movements: movements,
		guard:     guard,
		logger:    logger,
		now:       time.Now,
	}
}

// Purchase removes stock for any authenticated caller. The decrement is
// conditional in the store, so concurrent purchases never oversell.
func (s *InventoryService) Purchase(ctx context.Context, p domain.Principal, in ports.StockChangeInput) (*ports.StockChangeResult, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.change(ctx, p, domain.MovementPurchase, in, s.sweets.DecrementStock)
}

// Restock adds stock and marks the sweet available. Admin only.
func (s *InventoryService) Restock(ctx context.Context, p domain.Principal, in ports.StockChangeInput) (*ports.StockChangeResult, error) {
	if err := p.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.change(ctx, p, domain.MovementRestock, in, s.sweets.IncrementStock)
}

// Movements returns the most recent ledger entries of a sweet, newest first.
func (s *InventoryService) Movements(ctx context.Context, p domain.Principal, sweetID string, limit int) ([]*domain.StockMovement, error) {
	if err := p.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.sweets.FindByID(ctx, sweetID); err != nil {
		return nil, err
	}
	if s.movements == nil {
		return []*domain.StockMovement{}, nil
	}
	return s.movements.ListBySweet(ctx, sweetID, clampMovementLimit(limit))
}

func (s *InventoryService) change(
	ctx context.Context,
	p domain.Principal,
	kind domain.MovementKind,
	in ports.StockChangeInput,
	mutate stockMutator,
) (*ports.StockChangeResult, error) {
	if err := domain.ValidateQuantity(in.Quantity); err != nil {
		return nil, err
	}

	scope := idempotencyScope(kind, p.UserID, in.SweetID)
	claimed := false
	if in.IdempotencyKey != "" && s.guard != nil {
		fresh, rec, err := s.guard.Claim(ctx, scope, in.IdempotencyKey, in.Quantity)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency check failed, processing anyway")
		case fresh:
			claimed = true
		default:
			return s.replay(ctx, kind, in, rec)
		}
	}

	sweet, err := mutate(ctx, in.SweetID, in.Quantity)
	if err != nil {
		if claimed {
			if rerr := s.guard.Release(ctx, scope, in.IdempotencyKey); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}
	if claimed {
		// If this fails the pending record still expires after its short TTL.
		if cerr := s.guard.Commit(ctx, scope, in.IdempotencyKey, in.Quantity); cerr != nil {
			s.logger.Warn().Err(cerr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to commit idempotency key")
		}
	}

	s.record(ctx, p, kind, in.Quantity, sweet)
	s.logger.Info().
		Str("sweet_id", sweet.ID).
		Str("kind", string(kind)).
		Int("quantity", in.Quantity).
		Int("stock", sweet.Stock).
		Str("by", p.UserID).
		Msg("stock changed")

	return &ports.StockChangeResult{Sweet: sweet}, nil
}

// replay answers a request whose key is already known. Only a committed
// operation with the same quantity is replayed.
func (s *InventoryService) replay(ctx context.Context, kind domain.MovementKind, in ports.StockChangeInput, rec ports.IdempotencyRecord) (*ports.StockChangeResult, error) {
	if rec.Quantity != in.Quantity {
		return nil, domain.ErrIdempotencyMismatch
	}
	if rec.Status != ports.IdempotencyCommitted {
		return nil, domain.ErrIdempotencyInFlight
	}

	sweet, err := s.sweets.FindByID(ctx, in.SweetID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("sweet_id", sweet.ID).Str("kind", string(kind)).Msg("idempotent replay")
	return &ports.StockChangeResult{Sweet: sweet, Replayed: true}, nil
}

// record appends a ledger entry. The stock change has already committed, so
// a failure here is only logged.
func (s *InventoryService) record(ctx context.Context, p domain.Principal, kind domain.MovementKind, quantity int, sweet *domain.Sweet) {
	if s.movements == nil {
		return
	}
	m := &domain.StockMovement{
		SweetID:    sweet.ID,
		Kind:       kind,
		Quantity:   quantity,
		StockAfter: sweet.Stock,
		UserID:     p.UserID,
		At:         s.now().UTC(),
	}
	if err := s.movements.Insert(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("sweet_id", sweet.ID).Str("kind", string(kind)).Msg("failed to record stock movement")
	}
}

func idempotencyScope(kind domain.MovementKind, userID, sweetID string) string {
	return string(kind) + ":" + userID + ":" + sweetID
}

func clampMovementLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultMovementLimit
	case limit > maxMovementLimit:
		return maxMovementLimit
	default:
		return limit
	}
}
