package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	users   map[string]*domain.User // keyed by email
	findErr error                   // if set, every lookup returns this error
	nextID  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = "u" + strconv.Itoa(r.nextID)
	r.users[stored.Email] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func newTestAuthService(repo ports.UserRepository) *AuthService {
	return NewAuthService(repo, NewTokenManager("secret", time.Hour), bcrypt.MinCost, discardLogger)
}

func validRegistration() ports.RegisterInput {
	return ports.RegisterInput{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "Asha@Example.com ",
		Password:  "Sweet#2024",
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	user, token, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Sweet#2024")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	resolved, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("token from Register must authenticate: %v", err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("expected user %q, got %q", user.ID, resolved.ID)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	_, _, _ = svc.Register(context.Background(), validRegistration())

	in := validRegistration()
	in.Email = "ASHA@example.com"
	if _, _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*ports.RegisterInput)
		field string
	}{
		{"bad email", func(in *ports.RegisterInput) { in.Email = "not-an-email" }, "emailId"},
		{"weak password", func(in *ports.RegisterInput) { in.Password = "password" }, "password"},
		{"short first name", func(in *ports.RegisterInput) { in.FirstName = " A " }, "firstName"},
		{"missing last name", func(in *ports.RegisterInput) { in.LastName = "" }, "lastName"},
	}

	for _, tc := range cases {
		repo := newStubUserRepo()
		svc := newTestAuthService(repo)
		in := validRegistration()
		tc.edit(&in)

		_, _, err := svc.Register(context.Background(), in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
			continue
		}
		if ve.Field != tc.field {
			t.Errorf("%s: expected field %q, got %q", tc.name, tc.field, ve.Field)
		}
		if len(repo.users) != 0 {
			t.Errorf("%s: no user should be stored", tc.name)
		}
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	registered, _, _ := svc.Register(context.Background(), validRegistration())

	token, user, err := svc.Login(context.Background(), " ASHA@example.com", "Sweet#2024")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %q, got %q", registered.ID, user.ID)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	_, _, _ = svc.Register(context.Background(), validRegistration())

	_, _, wrongPassword := svc.Login(context.Background(), "asha@example.com", "Wrong#2024")
	_, _, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "Sweet#2024")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failures must match: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("db down")
	svc := newTestAuthService(repo)

	_, _, err := svc.Login(context.Background(), "asha@example.com", "Sweet#2024")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func TestAuthService_Authenticate_Failures(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("empty token: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "garbage"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("garbage token: expected ErrUnauthenticated, got %v", err)
	}

	orphan, _ := NewTokenManager("secret", time.Hour).Issue("deleted-user")
	if _, err := svc.Authenticate(context.Background(), orphan); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("unknown user: expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_Authenticate_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	_, token, _ := svc.Register(context.Background(), validRegistration())

	repo.findErr = errors.New("db down")
	_, err := svc.Authenticate(context.Background(), token)
	if err == nil || errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("store failure must not be reported as unauthenticated, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// SeedAdmin
// ---------------------------------------------------------------------------

func TestAuthService_SeedAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)
	in := ports.RegisterInput{FirstName: "Admin", LastName: "User", Email: "admin@example.com", Password: "Adm1n!pass"}

	created, err := svc.SeedAdmin(context.Background(), in)
	if err != nil {
		t.Fatalf("SeedAdmin returned error: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}
	if repo.users["admin@example.com"].Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", repo.users["admin@example.com"].Role)
	}

	again, err := svc.SeedAdmin(context.Background(), in)
	if err != nil {
		t.Fatalf("second SeedAdmin returned error: %v", err)
	}
	if again {
		t.Fatal("existing account must be left untouched")
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(repo.users))
	}
}

func TestAuthService_SeedAdmin_RequiresCredentials(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	if _, err := svc.SeedAdmin(context.Background(), ports.RegisterInput{FirstName: "Admin", LastName: "User"}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
