package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const minNameLength = 2

// AuthService implements registration, login and token resolution.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenManager
	cost   int
	logger zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService wires the credential store and token manager. A cost
// outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewAuthService(repo ports.UserRepository, tokens *TokenManager, cost int, logger zerolog.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, tokens: tokens, cost: cost, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, string, error) {
	user, err := s.createUser(ctx, in, domain.RoleUser, true)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	return user, token, nil
}

// Login checks the password for email. An unknown email and a wrong password
// both return domain.ErrInvalidCredentials after a bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return "", nil, domain.ErrInvalidCredentials
	case err != nil:
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token user: %w", err)
	}
	return user, nil
}

// SeedAdmin creates an administrator unless the email is already registered.
// It reports whether a user was created.
func (s *AuthService) SeedAdmin(ctx context.Context, in ports.RegisterInput) (bool, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return false, domain.NewValidationError("emailId", "ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		s.logger.Info().Str("email", existing.Email).Str("role", string(existing.Role)).Msg("admin seed skipped, account exists")
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	user, err := s.createUser(ctx, in, domain.RoleAdmin, false)
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("admin seeded")
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, in ports.RegisterInput, role domain.Role, strict bool) (*domain.User, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	email := domain.NormalizeEmail(in.Email)

	if err := validateRegistration(firstName, lastName, email, in.Password, strict); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// dummy returns a hash compared against on unknown emails so both login
// failures cost one bcrypt comparison.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func validateRegistration(firstName, lastName, email, password string, strict bool) error {
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.NewValidationError("emailId", "Invalid Email")
	}
	if password == "" || (strict && !domain.IsStrongPassword(password)) {
		return domain.NewValidationError("password", "Please enter the strong password")
	}
	if utf8.RuneCountInString(firstName) < minNameLength {
		return domain.NewValidationError("firstName", "Invalid First Name")
	}
	if utf8.RuneCountInString(lastName) < minNameLength {
		return domain.NewValidationError("lastName", "Invalid Last Name")
	}
	return nil
}
