// Command sweetshop runs the Sweet Shop inventory API.
//
// @title                       Sweet Shop API
// @version                     1.0
// @description                 Inventory and sales API for a sweet shop: accounts, catalog and stock.
// @BasePath                    /
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        token
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sweetshop",
		Short:         "Sweet Shop inventory API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newServeCommand(),
		newSeedAdminCommand(),
	)
	return cmd
}
