package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweetshop/sweetshop-api/internal/api"
	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/service"
	"github.com/sweetshop/sweetshop-api/internal/pkg/config"
	"github.com/sweetshop/sweetshop-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(st.users, tokens, cfg.Auth.BcryptCost, logger.For("auth"))
	catalogService := service.NewCatalogService(st.sweets, logger.For("catalog"))
	inventoryService := service.NewInventoryService(st.sweets, st.movements, st.guard, logger.For("inventory"))

	// A memory store starts empty, so seed the configured admin right away.
	if cfg.Store == config.StoreMemory && cfg.Admin.Email != "" {
		if _, err := authService.SeedAdmin(ctx, adminInput(cfg)); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Options{
		Auth:        authService,
		Catalog:     catalogService,
		Inventory:   inventoryService,
		Logger:      log,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Cookie:      handler.CookieConfig{MaxAge: tokens.TTL(), Secure: cfg.HTTP.CookieSecure},
		Probes:      st.probes,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("sweetshop listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
