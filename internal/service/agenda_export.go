package service

import (
	"fmt"
	"io"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/pkg/simpleexcel"
)

// DefaultAgendaLayout is used when no EXPORT_LAYOUT_PATH is configured.
const DefaultAgendaLayout = `
sheet: Agenda
title: Agenda
columns:
  - field_name: Date
    header: Date
    width: 12
  - field_name: Start
    header: Start
    width: 8
    formatter: clock
  - field_name: End
    header: End
    width: 8
    formatter: clock
  - field_name: Body
    header: Task
    width: 40
  - field_name: Color
    header: Color
    width: 10
  - field_name: Done
    header: Done
    width: 8
  - field_name: Virtual
    header: Virtual
    width: 8
  - field_name: RootID
    header: Series
    width: 10
`

// AgendaRow is one exported occurrence.
type AgendaRow struct {
	Date    string
	Start   int
	End     int
	Body    string
	Color   string
	Done    bool
	Virtual bool
	RootID  string
}

// AgendaRows flattens days into export rows in display order.
func AgendaRows(days []domain.DayAgenda) []AgendaRow {
	var rows []AgendaRow
	for _, day := range days {
		for _, o := range day.Occurrences {
			row := AgendaRow{
				Date:    day.Date.String(),
				Start:   o.StartMinute,
				End:     o.EndMinute,
				Body:    o.Body,
				Color:   o.Color,
				Done:    o.Done,
				Virtual: o.Virtual,
			}
			if o.RootID != nil {
				row.RootID = fmt.Sprintf("%d", *o.RootID)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// ClockFormatter renders minutes since midnight as HH:MM.
func ClockFormatter(v interface{}) interface{} {
	m, ok := v.(int)
	if !ok {
		return v
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ExportAgenda writes days as a workbook to w. A nil layout uses DefaultAgendaLayout.
func ExportAgenda(w io.Writer, layout *simpleexcel.Layout, days []domain.DayAgenda) error {
	if layout == nil {
		var err error
		if layout, err = simpleexcel.ParseLayout([]byte(DefaultAgendaLayout)); err != nil {
			return err
		}
	}

	exporter := simpleexcel.NewStreamExporter(w).RegisterFormatter("clock", ClockFormatter)
	if err := exporter.ExportLayout(layout, AgendaRows(days)); err != nil {
		return fmt.Errorf("failed to export agenda: %w", err)
	}
	return exporter.Close()
}
