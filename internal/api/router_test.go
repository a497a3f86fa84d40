package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
	"github.com/sweetshop/sweetshop-api/internal/core/service"
	"github.com/sweetshop/sweetshop-api/internal/infrastructure/db/memory"
)

const testPassword = "Sweet#123"

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	db := memory.New()
	log := zerolog.Nop()

	authService := service.NewAuthService(db.Users(), service.NewTokenManager("test-secret", 0), bcrypt.MinCost, log)
	if _, err := authService.SeedAdmin(context.Background(), ports.RegisterInput{
		FirstName: "Shop",
		LastName:  "Owner",
		Email:     "admin@sweets.test",
		Password:  testPassword,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	return NewRouter(Options{
		Auth:        authService,
		Catalog:     service.NewCatalogService(db.Sweets(), log),
		Inventory:   service.NewInventoryService(db.Sweets(), db.Movements(), nil, log),
		Logger:      log,
		CORSOrigins: []string{"http://localhost:5173"},
		Probes: map[string]handler.Probe{
			"store": func(context.Context) error { return nil },
		},
	})
}

type apiClient struct {
	t *testing.T
	e *echo.Echo
}

func (a apiClient) do(method, path, body, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a apiClient) expect(rec *httptest.ResponseRecorder, code int, fragment string) {
	a.t.Helper()
	if rec.Code != code {
		a.t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
	if fragment != "" && !strings.Contains(rec.Body.String(), fragment) {
		a.t.Fatalf("expected body to contain %q, got %s", fragment, rec.Body.String())
	}
}

// login returns the session token from the Set-Cookie header.
func (a apiClient) login(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/login", `{"emailId":"`+email+`","password":"`+testPassword+`"}`, "")
	a.expect(rec, http.StatusOK, "Login successful")
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c.Value
		}
	}
	a.t.Fatal("login did not set the token cookie")
	return ""
}

func TestRouter_InventoryFlow(t *testing.T) {
	api := apiClient{t: t, e: newTestRouter(t)}

	// Sign up a customer and sign in both roles.
	rec := api.do(http.MethodPost, "/api/auth/register",
		`{"firstName":"Asha","lastName":"Patel","emailId":"asha@sweets.test","password":"`+testPassword+`"}`, "")
	api.expect(rec, http.StatusCreated, `"role":"user"`)
	api.expect(api.do(http.MethodPost, "/api/auth/register",
		`{"firstName":"Asha","lastName":"Patel","emailId":"ASHA@sweets.test","password":"`+testPassword+`"}`, ""),
		http.StatusConflict, "Email already registered")

	user := api.login("asha@sweets.test")
	admin := api.login("admin@sweets.test")

	// Catalog writes are admin only.
	newSweet := `{"name":"Gulab Jamun","category":"Indian","price":25,"stock":10}`
	api.expect(api.do(http.MethodPost, "/api/sweets", newSweet, ""), http.StatusUnauthorized, `{"error":"Unauthorized"}`)
	api.expect(api.do(http.MethodPost, "/api/sweets", newSweet, user), http.StatusForbidden, `{"error":"Forbidden"}`)

	rec = api.do(http.MethodPost, "/api/sweets", newSweet, admin)
	api.expect(rec, http.StatusCreated, `"message":"Sweet created"`)
	var created struct {
		Sweet struct {
			ID          string `json:"_id"`
			IsAvailable bool   `json:"isAvailable"`
		} `json:"sweet"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.Sweet.ID == "" {
		t.Fatalf("cannot read created sweet: %v %s", err, rec.Body.String())
	}
	if !created.Sweet.IsAvailable {
		t.Fatal("new sweet should default to available")
	}
	id := created.Sweet.ID

	// Reads need a session too.
	api.expect(api.do(http.MethodGet, "/api/sweets", "", ""), http.StatusUnauthorized, `{"error":"Unauthorized"}`)
	api.expect(api.do(http.MethodGet, "/api/sweets/search?priceMin=NaN", "", user), http.StatusBadRequest, "priceMin must be a number")
	api.expect(api.do(http.MethodGet, "/api/sweets", "", user), http.StatusOK, `"sweets":[{"_id":"`+id+`"`)
	api.expect(api.do(http.MethodGet, "/api/sweets/search?name=gulab&maxPrice=30", "", user), http.StatusOK, id)
	api.expect(api.do(http.MethodGet, "/api/sweets/search?category=Bengali", "", user), http.StatusOK, `{"sweets":[]}`)
	api.expect(api.do(http.MethodGet, "/api/sweets/"+id, "", user), http.StatusOK, `"name":"Gulab Jamun"`)
	api.expect(api.do(http.MethodGet, "/api/sweets/not-an-id", "", user), http.StatusBadRequest, "Invalid sweet ID format")
	api.expect(api.do(http.MethodGet, "/api/sweets/64b7f0c2a1b2c3d4e5f60718", "", user), http.StatusNotFound, "Sweet not found")

	// Purchases.
	api.expect(api.do(http.MethodPost, "/api/sweets/"+id+"/purchase", `{"quantity":3}`, user), http.StatusOK, `"stock":7`)
	api.expect(api.do(http.MethodPost, "/api/sweets/"+id+"/purchase", `{"quantity":8}`, user), http.StatusBadRequest, "Insufficient stock")
	api.expect(api.do(http.MethodPost, "/api/sweets/"+id+"/purchase", `{"quantity":"2"}`, user), http.StatusBadRequest, "Invalid quantity")
	api.expect(api.do(http.MethodPost, "/api/sweets/"+id+"/purchase", `{"quantity":7}`, user), http.StatusOK, `"isAvailable":false`)

	// Restock.
	api.expect(api.do(http.MethodPost, "/api/sweets/"+id+"/restock", `{"quantity":5}`, user), http.StatusForbidden, "Forbidden")
	rec = api.do(http.MethodPost, "/api/sweets/"+id+"/restock", `{"quantity":5}`, admin)
	api.expect(rec, http.StatusOK, `"message":"Restock successful"`)
	if !strings.Contains(rec.Body.String(), `"stock":5`) || !strings.Contains(rec.Body.String(), `"isAvailable":true`) {
		t.Fatalf("unexpected restock result: %s", rec.Body.String())
	}

	// Ledger.
	api.expect(api.do(http.MethodGet, "/api/sweets/"+id+"/movements", "", user), http.StatusForbidden, "")
	rec = api.do(http.MethodGet, "/api/sweets/"+id+"/movements?limit=10", "", admin)
	api.expect(rec, http.StatusOK, "")
	var ledger struct {
		Movements []struct {
			Kind       string `json:"kind"`
			StockAfter int    `json:"stockAfter"`
		} `json:"movements"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ledger); err != nil {
		t.Fatalf("invalid ledger json: %v", err)
	}
	if len(ledger.Movements) != 3 || ledger.Movements[0].Kind != "restock" || ledger.Movements[0].StockAfter != 5 {
		t.Fatalf("unexpected ledger: %+v", ledger.Movements)
	}

	// Update and delete.
	api.expect(api.do(http.MethodPut, "/api/sweets/"+id, `{"stock":0}`, admin), http.StatusOK, `"isAvailable":false`)
	api.expect(api.do(http.MethodPut, "/api/sweets/"+id, `{}`, admin), http.StatusBadRequest, "No fields to update")
	api.expect(api.do(http.MethodDelete, "/api/sweets/"+id, "", user), http.StatusForbidden, "")
	api.expect(api.do(http.MethodDelete, "/api/sweets/"+id, "", admin), http.StatusOK, "Sweet deleted")
	api.expect(api.do(http.MethodGet, "/api/sweets/"+id, "", admin), http.StatusNotFound, "Sweet not found")
}

func TestRouter_CookieSession(t *testing.T) {
	api := apiClient{t: t, e: newTestRouter(t)}
	token := api.login("admin@sweets.test")

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)
	api.expect(rec, http.StatusOK, `"role":"admin"`)
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("profile must not expose the password hash: %s", rec.Body.String())
	}

	api.expect(api.do(http.MethodGet, "/api/user", "", "garbage"), http.StatusUnauthorized, "Unauthorized")
	api.expect(api.do(http.MethodPost, "/api/auth/logout", "", ""), http.StatusOK, "Logout successful")
	api.expect(api.do(http.MethodPost, "/api/auth/login", `{"emailId":"admin@sweets.test","password":"Wrong#123"}`, ""),
		http.StatusUnauthorized, "Invalid email or password")
}

func TestRouter_Operations(t *testing.T) {
	api := apiClient{t: t, e: newTestRouter(t)}

	api.expect(api.do(http.MethodGet, "/health", "", ""), http.StatusOK, `"status":"ok"`)
	api.expect(api.do(http.MethodGet, "/health/ready", "", ""), http.StatusOK, `"store":{"status":"ok"}`)

	// Generate at least one labelled sample before scraping.
	api.do(http.MethodGet, "/api/sweets", "", "")
	api.expect(api.do(http.MethodGet, "/metrics", "", ""), http.StatusOK, "sweetshop_http_request_duration_seconds")

	api.expect(api.do(http.MethodGet, "/swagger/doc.json", "", ""), http.StatusOK, "Sweet Shop API")
}

func TestRouter_CORSPreflight(t *testing.T) {
	e := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/sweets", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin: %q", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowCredentials) != "true" {
		t.Fatal("expected credentials to be allowed")
	}
}
