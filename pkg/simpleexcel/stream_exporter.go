package simpleexcel

import (
	"fmt"
	"io"
	"reflect"

	"github.com/xuri/excelize/v2"
)

// StreamExporter manages a streaming Excel export session.
type StreamExporter struct {
	file       *excelize.File
	writer     io.Writer
	sheets     map[string]*StreamSheet
	order      []string
	formatters map[string]func(interface{}) interface{}
}

// NewStreamExporter creates a new StreamExporter.
func NewStreamExporter(w io.Writer) *StreamExporter {
	return &StreamExporter{
		file:       excelize.NewFile(),
		writer:     w,
		sheets:     make(map[string]*StreamSheet),
		formatters: make(map[string]func(interface{}) interface{}),
	}
}

// RegisterFormatter makes fn available to columns that name it in FormatterName.
func (e *StreamExporter) RegisterFormatter(name string, fn func(interface{}) interface{}) *StreamExporter {
	e.formatters[name] = fn
	return e
}

// StreamSheet is one sheet being written top to bottom.
type StreamSheet struct {
	exporter    *StreamExporter
	stream      *excelize.StreamWriter
	name        string
	columns     []ColumnConfig
	currentRow  int
	headerShown bool
	widthsSet   bool
}

// AddSheet adds a new sheet and returns its writer.
func (e *StreamExporter) AddSheet(name string) (*StreamSheet, error) {
	if _, ok := e.sheets[name]; ok {
		return nil, fmt.Errorf("sheet %s already exists", name)
	}

	index, err := e.file.GetSheetIndex(name)
	if err != nil {
		return nil, err
	}
	if index == -1 {
		index, err = e.file.NewSheet(name)
		if err != nil {
			return nil, err
		}
	}
	e.file.SetActiveSheet(index)

	sw, err := e.file.NewStreamWriter(name)
	if err != nil {
		return nil, err
	}

	sheet := &StreamSheet{
		exporter:   e,
		stream:     sw,
		name:       name,
		currentRow: 1,
	}
	e.sheets[name] = sheet
	e.order = append(e.order, name)
	return sheet, nil
}

// SetColumnWidths applies the widths of columns. The stream writer only
// accepts widths before the first row, so call it before WriteTitle.
func (s *StreamSheet) SetColumnWidths(columns []ColumnConfig) error {
	if s.currentRow > 1 {
		return fmt.Errorf("column widths must be set before any row")
	}
	for i, col := range columns {
		if col.Width > 0 {
			if err := s.stream.SetColWidth(i+1, i+1, col.Width); err != nil {
				return err
			}
		}
	}
	s.widthsSet = true
	return nil
}

// WriteTitle writes a bold title merged across span columns. It must come
// before the header.
func (s *StreamSheet) WriteTitle(title string, span int) error {
	if s.headerShown {
		return fmt.Errorf("title must be written before the header")
	}
	styleID, err := s.exporter.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top"},
	})
	if err != nil {
		return err
	}

	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, []interface{}{excelize.Cell{Value: title, StyleID: styleID}}); err != nil {
		return err
	}
	if span > 1 {
		endCell, _ := excelize.CoordinatesToCellName(span, s.currentRow)
		if err := s.stream.MergeCell(cell, endCell); err != nil {
			return err
		}
	}
	s.currentRow++
	return nil
}

// WriteHeader writes the header row and fixes the sheet's columns. Named
// formatters are resolved here.
func (s *StreamSheet) WriteHeader(columns []ColumnConfig) error {
	s.columns = make([]ColumnConfig, len(columns))
	copy(s.columns, columns)

	styleID, err := s.exporter.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
	})
	if err != nil {
		return err
	}

	if !s.widthsSet && s.currentRow == 1 {
		if err := s.SetColumnWidths(s.columns); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(s.columns))
	for i, col := range s.columns {
		if col.Formatter == nil && col.FormatterName != "" {
			fn, ok := s.exporter.formatters[col.FormatterName]
			if !ok {
				return fmt.Errorf("column %s: unknown formatter %q", col.FieldName, col.FormatterName)
			}
			s.columns[i].Formatter = fn
		}
		header[i] = excelize.Cell{Value: col.Header, StyleID: styleID}
	}

	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, header); err != nil {
		return err
	}
	s.currentRow++
	s.headerShown = true
	return nil
}

// WriteRow writes a single struct or map as a data row.
func (s *StreamSheet) WriteRow(item interface{}) error {
	if !s.headerShown {
		return fmt.Errorf("header must be written before data")
	}

	row := make([]interface{}, len(s.columns))
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	for i, col := range s.columns {
		val := extractValue(v, col.FieldName)
		if col.Formatter != nil {
			val = col.Formatter(val)
		}
		row[i] = val
	}

	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, row); err != nil {
		return err
	}
	s.currentRow++
	return nil
}

// WriteBatch writes a slice of data as multiple rows.
func (s *StreamSheet) WriteBatch(slice interface{}) error {
	v := reflect.ValueOf(slice)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("WriteBatch expects a slice, got %T", slice)
	}

	for i := 0; i < v.Len(); i++ {
		if err := s.WriteRow(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// ExportLayout writes one sheet described by layout with rows as its data.
func (e *StreamExporter) ExportLayout(layout *Layout, rows interface{}) error {
	sheet, err := e.AddSheet(layout.Sheet)
	if err != nil {
		return err
	}
	if err := sheet.SetColumnWidths(layout.Columns); err != nil {
		return err
	}
	if layout.Title != "" {
		if err := sheet.WriteTitle(layout.Title, len(layout.Columns)); err != nil {
			return err
		}
	}
	if err := sheet.WriteHeader(layout.Columns); err != nil {
		return err
	}
	return sheet.WriteBatch(rows)
}

// Close flushes every sheet and writes the workbook to the output writer.
func (e *StreamExporter) Close() error {
	for _, name := range e.order {
		if err := e.sheets[name].stream.Flush(); err != nil {
			return err
		}
	}

	// Remove default Sheet1 if it wasn't used
	if _, ok := e.sheets["Sheet1"]; !ok {
		_ = e.file.DeleteSheet("Sheet1")
	}

	return e.file.Write(e.writer)
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	switch item.Kind() {
	case reflect.Struct:
		if f := item.FieldByName(fieldName); f.IsValid() {
			return f.Interface()
		}
	case reflect.Map:
		if val := item.MapIndex(reflect.ValueOf(fieldName)); val.IsValid() {
			return val.Interface()
		}
	}
	return ""
}
