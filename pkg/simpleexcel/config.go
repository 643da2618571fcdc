package simpleexcel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ColumnConfig defines one exported column.
type ColumnConfig struct {
	FieldName     string                        `yaml:"field_name"` // Struct field name or map key
	Header        string                        `yaml:"header"`
	Width         float64                       `yaml:"width"`
	FormatterName string                        `yaml:"formatter"` // Name of a registered formatter
	Formatter     func(interface{}) interface{} `yaml:"-"`
}

// Layout is the YAML description of a single-sheet export.
type Layout struct {
	Sheet   string         `yaml:"sheet"`
	Title   string         `yaml:"title"`
	Columns []ColumnConfig `yaml:"columns"`
}

// ParseLayout reads a layout from YAML.
func ParseLayout(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if layout.Sheet == "" {
		layout.Sheet = "Sheet1"
	}
	if len(layout.Columns) == 0 {
		return nil, fmt.Errorf("layout has no columns")
	}
	for i, col := range layout.Columns {
		if col.FieldName == "" {
			return nil, fmt.Errorf("layout column %d has no field_name", i+1)
		}
		if col.Header == "" {
			layout.Columns[i].Header = col.FieldName
		}
	}
	return &layout, nil
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	return ParseLayout(data)
}
