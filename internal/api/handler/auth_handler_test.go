package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/middleware"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, string, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, string, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUnauthenticated
}

// newJSONContext builds an echo context for a JSON request with the
// application validator installed.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	t.Fatalf("expected %q cookie to be set", middleware.TokenCookie)
	return nil
}

const validRegisterBody = `{"firstName":"Asha","lastName":"Patel","emailId":"Asha@Example.com","password":"Sweet#123"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, string, error) {
			if in.Email != "Asha@Example.com" || in.FirstName != "Asha" || in.Password != "Sweet#123" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", FirstName: "Asha", Email: "asha@example.com", Role: domain.RoleUser}, "tok", nil
		},
	}
	h := NewAuthHandler(stub, CookieConfig{})
	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", validRegisterBody)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "User signed up successfully" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["emailId"] != "asha@example.com" || user["role"] != "user" {
		t.Fatalf("unexpected user payload: %v", resp["user"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatal("password hash must not be serialized")
	}

	cookie := tokenCookie(t, rec)
	if cookie.Value != "tok" || !cookie.HttpOnly || cookie.Path != "/" || cookie.MaxAge != 86400 {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
	if cookie.SameSite != http.SameSiteLaxMode || cookie.Secure {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
}

func TestAuthHandler_Register_SecureCookie(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, string, error) {
			return &domain.User{ID: "u1"}, "tok", nil
		},
	}
	h := NewAuthHandler(stub, CookieConfig{Secure: true})
	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", validRegisterBody)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !tokenCookie(t, rec).Secure {
		t.Fatal("expected Secure cookie")
	}
}

func TestAuthHandler_Register_ValidationOrder(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad email", `{"firstName":"x","lastName":"y","emailId":"nope","password":"weak"}`, "Invalid Email"},
		{"weak password", `{"firstName":"x","lastName":"y","emailId":"a@b.co","password":"weak"}`, "Please enter the strong password"},
		{"short first name", `{"firstName":"x","lastName":"Patel","emailId":"a@b.co","password":"Sweet#123"}`, "firstName must be at least 2 characters"},
		{"missing last name", `{"firstName":"Asha","emailId":"a@b.co","password":"Sweet#123"}`, "lastName is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{
				registerFn: func(context.Context, ports.RegisterInput) (*domain.User, string, error) {
					t.Fatal("service must not be called")
					return nil, "", nil
				},
			}
			c, _ := newJSONContext(http.MethodPost, "/api/auth/register", tc.body)

			err := NewAuthHandler(stub, CookieConfig{}).Register(c)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Message != tc.want {
				t.Fatalf("expected validation error %q, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthHandler_Register_MalformedJSON(t *testing.T) {
	c, _ := newJSONContext(http.MethodPost, "/api/auth/register", `{"emailId":`)
	err := NewAuthHandler(&stubAuthService{}, CookieConfig{}).Register(c)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, string, error) {
			return nil, "", domain.ErrUserExists
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", validRegisterBody)

	err := NewAuthHandler(stub, CookieConfig{}).Register(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no cookie expected on failure")
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.User, error) {
			if email != "asha@example.com" || password != "Sweet#123" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			return "tok", &domain.User{ID: "u1", Email: email, Role: domain.RoleAdmin}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/api/auth/login", `{"emailId":"asha@example.com","password":"Sweet#123"}`)

	if err := NewAuthHandler(stub, CookieConfig{}).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"Login successful"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if tokenCookie(t, rec).Value != "tok" {
		t.Fatal("expected token cookie")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/api/auth/login", `{"emailId":"a@b.co","password":"x"}`)

	err := NewAuthHandler(stub, CookieConfig{}).Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	c, rec := newJSONContext(http.MethodPost, "/api/auth/logout", "")

	if err := NewAuthHandler(&stubAuthService{}, CookieConfig{}).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	cookie := tokenCookie(t, rec)
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("expected an expiring empty cookie, got %+v", cookie)
	}
	if !strings.Contains(rec.Body.String(), "Logout successful") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, CookieConfig{})

	c, _ := newJSONContext(http.MethodGet, "/api/user", "")
	if err := h.Profile(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without middleware, got %v", err)
	}

	c, rec := newJSONContext(http.MethodGet, "/api/user", "")
	c.Set(middleware.UserKey, &domain.User{ID: "u1", FirstName: "Asha", Role: domain.RoleUser})
	if err := h.Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"_id":"u1"`) {
		t.Fatalf("expected bare user, got %s", rec.Body.String())
	}
}
