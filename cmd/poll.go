package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/locvowork/dayplanner/internal/bootstrap"
)

var pollOnce bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the due-task poller without the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := bootstrap.NewApp()
		if err := app.LoadConfig(ctx); err != nil {
			return err
		}
		defer app.Close()
		if err := app.OpenStore(ctx, false); err != nil {
			return err
		}

		poller := app.NewDuePoller()
		if !pollOnce {
			return poller.Run(ctx)
		}
		n, err := poller.Tick(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d occurrence(s) due\n", n)
		return nil
	},
}

func init() {
	pollCmd.Flags().BoolVar(&pollOnce, "once", false, "run a single poll and exit")
	rootCmd.AddCommand(pollCmd)
}
