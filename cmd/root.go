package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dayplanner",
	Short: "Per-user day planner with recurring tasks",
	Long: `dayplanner stores each user's tasks and expands recurring ones into
the days they fall on.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
