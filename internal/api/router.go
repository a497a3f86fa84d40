package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sweetshop/sweetshop-api/docs"
	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/api/middleware"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// Options carries everything the router needs. Probes may be nil.
type Options struct {
	Auth      ports.AuthService
	Catalog   ports.CatalogService
	Inventory ports.InventoryService

	Logger      zerolog.Logger
	CORSOrigins []string
	Cookie      handler.CookieConfig
	Probes      map[string]handler.Probe
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, handler.IdempotencyKeyHeader},
		ExposeHeaders:    []string{handler.ReplayedHeader, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	e.Use(metrics.Middleware())

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(opts.Auth, opts.Cookie)
	sweetHandler := handler.NewSweetHandler(opts.Catalog)
	inventoryHandler := handler.NewInventoryHandler(opts.Inventory)
	healthHandler := handler.NewHealthHandler(opts.Probes)

	authn := middleware.Authenticate(opts.Auth)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	validID := middleware.ValidObjectID("id")

	// --- Auth routes ---
	api := e.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/user", authHandler.Profile, authn)

	// --- Catalog and inventory (authenticated) ---
	sweets := api.Group("/sweets", authn)
	sweets.GET("", sweetHandler.List)
	sweets.GET("/search", sweetHandler.Search)
	sweets.GET("/:id", sweetHandler.Get, validID)
	sweets.POST("", sweetHandler.Create, adminOnly)
	sweets.PUT("/:id", sweetHandler.Update, adminOnly, validID)
	sweets.DELETE("/:id", sweetHandler.Delete, adminOnly, validID)

	sweets.POST("/:id/purchase", inventoryHandler.Purchase, validID)
	sweets.POST("/:id/restock", inventoryHandler.Restock, adminOnly, validID)
	sweets.GET("/:id/movements", inventoryHandler.Movements, adminOnly, validID)

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
