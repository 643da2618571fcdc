package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/locvowork/dayplanner/internal/bootstrap"
	"github.com/locvowork/dayplanner/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the due-task poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := bootstrap.NewApp()
		if err := app.Initialize(ctx); err != nil {
			logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
			app.Close()
			return err
		}
		if err := app.Run(ctx); err != nil {
			logger.ErrorLog(ctx, "Application failed: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
