package simpleexcel

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testRow struct {
	Name  string
	Count int
}

func readRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestStreamExporter(t *testing.T) {
	buf := new(bytes.Buffer)
	exporter := NewStreamExporter(buf)

	sheet, err := exporter.AddSheet("Data")
	require.NoError(t, err)

	cols := []ColumnConfig{
		{FieldName: "Name", Header: "Name", Width: 20},
		{FieldName: "Count", Header: "Count", Width: 10},
	}
	require.NoError(t, sheet.SetColumnWidths(cols))
	require.NoError(t, sheet.WriteTitle("Report", len(cols)))
	require.NoError(t, sheet.WriteHeader(cols))
	require.NoError(t, sheet.WriteRow(testRow{Name: "Alice", Count: 3}))
	require.NoError(t, sheet.WriteBatch([]*testRow{{Name: "Bob", Count: 5}}))
	require.NoError(t, sheet.WriteBatch([]map[string]interface{}{{"Name": "Carol", "Count": 7}}))
	require.NoError(t, exporter.Close())

	rows := readRows(t, buf, "Data")
	require.Len(t, rows, 5)
	assert.Equal(t, "Report", rows[0][0])
	assert.Equal(t, []string{"Name", "Count"}, rows[1])
	assert.Equal(t, []string{"Alice", "3"}, rows[2])
	assert.Equal(t, []string{"Bob", "5"}, rows[3])
	assert.Equal(t, []string{"Carol", "7"}, rows[4])
}

func TestStreamSheetOrdering(t *testing.T) {
	exporter := NewStreamExporter(new(bytes.Buffer))
	sheet, err := exporter.AddSheet("Data")
	require.NoError(t, err)

	assert.Error(t, sheet.WriteRow(testRow{}), "rows need a header")

	_, err = exporter.AddSheet("Data")
	assert.Error(t, err)

	require.NoError(t, sheet.WriteHeader([]ColumnConfig{{FieldName: "Name", Header: "Name"}}))
	assert.Error(t, sheet.WriteTitle("late", 1))
	assert.Error(t, sheet.SetColumnWidths([]ColumnConfig{{Width: 3}}))
	assert.Error(t, sheet.WriteBatch(testRow{}))
}

func TestExportLayoutWithFormatter(t *testing.T) {
	layout, err := ParseLayout([]byte(`
sheet: Agenda
title: Week
columns:
  - field_name: Name
    header: Who
    width: 25
  - field_name: Count
    header: Total
    formatter: padded
`))
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	exporter := NewStreamExporter(buf).RegisterFormatter("padded", func(v interface{}) interface{} {
		return fmt.Sprintf("%03d", v)
	})
	require.NoError(t, exporter.ExportLayout(layout, []testRow{{Name: "Dana", Count: 4}}))
	require.NoError(t, exporter.Close())

	rows := readRows(t, buf, "Agenda")
	require.Len(t, rows, 3)
	assert.Equal(t, "Week", rows[0][0])
	assert.Equal(t, []string{"Who", "Total"}, rows[1])
	assert.Equal(t, []string{"Dana", "004"}, rows[2])
}

func TestExportLayoutUnknownFormatter(t *testing.T) {
	layout := &Layout{Sheet: "S", Columns: []ColumnConfig{{FieldName: "Name", FormatterName: "missing"}}}
	err := NewStreamExporter(new(bytes.Buffer)).ExportLayout(layout, []testRow{})
	assert.ErrorContains(t, err, "unknown formatter")
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"defaults", "columns:\n  - field_name: Body\n", false},
		{"no columns", "sheet: x\n", true},
		{"column without field", "columns:\n  - header: Body\n", true},
		{"malformed", "columns: [", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := ParseLayout([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Sheet1", layout.Sheet)
			assert.Equal(t, "Body", layout.Columns[0].Header)
		})
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sheet: Tasks\ncolumns:\n  - field_name: Body\n"), 0o644))

	layout, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, "Tasks", layout.Sheet)

	_, err = LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
