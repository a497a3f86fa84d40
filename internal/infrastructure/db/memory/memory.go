// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// DB holds every collection behind one mutex, so each repository call is
// atomic with respect to the others.
type DB struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	sweets    map[string]*domain.Sweet
	order     []string
	movements []*domain.StockMovement
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:  make(map[string]*domain.User),
		sweets: make(map[string]*domain.Sweet),
	}
}

// UserRepo is the credential store view of a DB.
type UserRepo struct{ db *DB }

// SweetRepo is the catalog view of a DB.
type SweetRepo struct{ db *DB }

// MovementRepo is the stock ledger view of a DB.
type MovementRepo struct{ db *DB }

func (db *DB) Users() *UserRepo         { return &UserRepo{db: db} }
func (db *DB) Sweets() *SweetRepo       { return &SweetRepo{db: db} }
func (db *DB) Movements() *MovementRepo { return &MovementRepo{db: db} }

// Ensure interfaces are met.
var _ ports.UserRepository = (*UserRepo)(nil)
var _ ports.SweetRepository = (*SweetRepo)(nil)
var _ ports.MovementRepository = (*MovementRepo)(nil)

func newID() string {
	return primitive.NewObjectID().Hex()
}

// --- UserRepository ---

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	email = domain.NormalizeEmail(email)
	for _, u := range r.db.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	stored := cloneUser(user)
	stored.ID = newID()
	r.db.users[stored.ID] = stored
	return cloneUser(stored), nil
}

// --- SweetRepository ---

func (r *SweetRepo) Create(_ context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored := cloneSweet(s)
	stored.ID = newID()
	r.db.sweets[stored.ID] = stored
	r.db.order = append(r.db.order, stored.ID)
	return cloneSweet(stored), nil
}

func (r *SweetRepo) FindByID(_ context.Context, id string) (*domain.Sweet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, err := r.db.sweet(id)
	if err != nil {
		return nil, err
	}
	return cloneSweet(s), nil
}

func (r *SweetRepo) List(_ context.Context, filter domain.SweetFilter) ([]*domain.Sweet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*domain.Sweet, 0, len(r.db.order))
	for _, id := range r.db.order {
		s := r.db.sweets[id]
		if filter.Matches(s) {
			out = append(out, cloneSweet(s))
		}
	}
	return out, nil
}

func (r *SweetRepo) Update(_ context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, err := r.db.sweet(id)
	if err != nil {
		return nil, err
	}
	patch.Apply(s)
	s.UpdatedAt = time.Now().UTC()
	return cloneSweet(s), nil
}

func (r *SweetRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, err := r.db.sweet(id); err != nil {
		return err
	}
	delete(r.db.sweets, id)
	for i, oid := range r.db.order {
		if oid == id {
			r.db.order = append(r.db.order[:i], r.db.order[i+1:]...)
			break
		}
	}
	return nil
}

// DecrementStock checks and subtracts under the lock, the in-memory
// equivalent of a conditional update.
func (r *SweetRepo) DecrementStock(_ context.Context, id string, quantity int) (*domain.Sweet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, err := r.db.sweet(id)
	if err != nil {
		return nil, err
	}
	if err := s.Purchase(quantity); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()
	return cloneSweet(s), nil
}

func (r *SweetRepo) IncrementStock(_ context.Context, id string, quantity int) (*domain.Sweet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, err := r.db.sweet(id)
	if err != nil {
		return nil, err
	}
	if err := s.Restock(quantity); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()
	return cloneSweet(s), nil
}

// sweet returns the stored record; callers must hold mu.
func (db *DB) sweet(id string) (*domain.Sweet, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, domain.ErrInvalidID
	}
	s, ok := db.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	return s, nil
}

// --- MovementRepository ---

func (r *MovementRepo) Insert(_ context.Context, m *domain.StockMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored := *m
	stored.ID = newID()
	m.ID = stored.ID
	r.db.movements = append(r.db.movements, &stored)
	return nil
}

func (r *MovementRepo) ListBySweet(_ context.Context, sweetID string, limit int) ([]*domain.StockMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*domain.StockMovement, 0)
	for i := len(r.db.movements) - 1; i >= 0; i-- {
		if m := r.db.movements[i]; m.SweetID == sweetID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func cloneSweet(s *domain.Sweet) *domain.Sweet {
	clone := *s
	clone.Ingredients = append([]string{}, s.Ingredients...)
	return &clone
}
