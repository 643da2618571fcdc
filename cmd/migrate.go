package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/locvowork/dayplanner/internal/bootstrap"
	"github.com/locvowork/dayplanner/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tasks schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app := bootstrap.NewApp()
		if err := app.LoadConfig(ctx); err != nil {
			return err
		}
		switch config.DefaultEnvConfig.STORE_DRIVER {
		case config.StoreDriverPostgres, config.StoreDriverSQLite:
		default:
			return fmt.Errorf("store driver %q has no schema to migrate", config.DefaultEnvConfig.STORE_DRIVER)
		}

		defer app.Close()
		if err := app.OpenStore(ctx, true); err != nil {
			return err
		}
		fmt.Println("✓ schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
