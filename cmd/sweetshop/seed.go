package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweetshop/sweetshop-api/internal/core/service"
	"github.com/sweetshop/sweetshop-api/internal/pkg/config"
)

func newSeedAdminCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account if it does not exist",
		Long: "Creates an admin user from ADMIN_EMAIL, ADMIN_PASSWORD, ADMIN_FIRST_NAME and\n" +
			"ADMIN_LAST_NAME. An existing account with that email is left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				return fmt.Errorf("seed-admin needs a persistent store, STORE is %q", cfg.Store)
			}
			if email != "" {
				cfg.Admin.Email = email
			}
			if password != "" {
				cfg.Admin.Password = password
			}

			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			tokens := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			created, err := service.NewAuthService(st.users, tokens, cfg.Auth.BcryptCost, log).SeedAdmin(ctx, adminInput(cfg))
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", cfg.Admin.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", cfg.Admin.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (overrides ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (overrides ADMIN_PASSWORD)")
	return cmd
}
