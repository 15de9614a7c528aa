package config

import (
	"fmt"
)

// Source kinds understood by the loader.
const (
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceGRDF   = "grdf"
	SourceSheets = "sheets"
)

// SourceConfig describes one tabular input feeding a dataset.
// Several sources may feed the same dataset; their records are concatenated.
type SourceConfig struct {
	Name          string `yaml:"name"`
	Dataset       string `yaml:"dataset"`
	Kind          string `yaml:"kind"`
	Path          string `yaml:"path"`
	Sheet         string `yaml:"sheet"`
	Delimiter     string `yaml:"delimiter"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Range         string `yaml:"range"`
}

func (s SourceConfig) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Dataset == "" {
		return fmt.Errorf("%s: dataset is required", s.Name)
	}
	switch s.Kind {
	case SourceCSV, SourceXLSX, SourceGRDF:
		if s.Path == "" {
			return fmt.Errorf("%s: path is required for %s sources", s.Name, s.Kind)
		}
	case SourceSheets:
		if s.SpreadsheetID == "" || s.Range == "" {
			return fmt.Errorf("%s: spreadsheet_id and range are required", s.Name)
		}
	default:
		return fmt.Errorf("%s: unknown source kind %q", s.Name, s.Kind)
	}
	if len([]rune(s.Delimiter)) > 1 {
		return fmt.Errorf("%s: delimiter must be a single character", s.Name)
	}
	return nil
}

// Datasets returns the distinct dataset names of the configured sources in order.
func (c *Config) Datasets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c.Sources {
		if !seen[s.Dataset] {
			seen[s.Dataset] = true
			out = append(out, s.Dataset)
		}
	}
	return out
}
