package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/locvowork/dayplanner/internal/bootstrap"
	"github.com/locvowork/dayplanner/internal/domain"
)

var (
	dayOwner int64
	dayDate  string
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Print one owner's materialized day",
	Example: `  dayplanner day --owner 1
  dayplanner day --owner 1 --date 2024-01-08`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		date := domain.DateOf(time.Now())
		if dayDate != "" {
			d, err := domain.ParseDate(dayDate)
			if err != nil {
				return err
			}
			date = d
		}

		app := bootstrap.NewApp()
		if err := app.LoadConfig(ctx); err != nil {
			return err
		}
		defer app.Close()
		if err := app.OpenStore(ctx, false); err != nil {
			return err
		}

		day, err := app.Service.MaterializeDay(ctx, dayOwner, date)
		if err != nil {
			return err
		}
		renderDay(date, day)
		return nil
	},
}

func renderDay(date domain.Date, day []domain.Occurrence) {
	if len(day) == 0 {
		fmt.Printf("Nothing planned on %s\n", date)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleDouble)
	t.Style().Options.SeparateRows = false
	t.SetTitle(date.String())

	t.AppendHeader(table.Row{
		text.FgGreen.Sprintf("ID"),
		text.FgGreen.Sprintf("Start"),
		text.FgGreen.Sprintf("End"),
		text.FgGreen.Sprintf("%s", text.Bold.Sprintf("Task")),
		text.FgGreen.Sprintf("Every"),
		text.FgGreen.Sprintf("Series"),
	})

	for _, o := range day {
		id := "-"
		if o.ID != nil {
			id = fmt.Sprintf("%d", *o.ID)
		}
		series := ""
		if o.RootID != nil {
			series = fmt.Sprintf("%d", *o.RootID)
		}
		every := ""
		if o.FrequencyDays > 0 {
			every = fmt.Sprintf("%dd", o.FrequencyDays)
		}
		t.AppendRow(table.Row{id, clock(o.StartMinute), clock(o.EndMinute), o.Body, every, series})
	}
	t.Render()
}

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func init() {
	dayCmd.Flags().Int64VarP(&dayOwner, "owner", "o", 0, "owner id")
	dayCmd.Flags().StringVarP(&dayDate, "date", "d", "", "day to show (YYYY-MM-DD, default today)")
	_ = dayCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(dayCmd)
}
