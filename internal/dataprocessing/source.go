package dataprocessing

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"energydash/internal/config"
)

// Source yields the raw rows of one tabular input, header included.
type Source interface {
	Name() string
	Dataset() string
	Rows(ctx context.Context) ([][]string, error)
}

// NewSource builds the reader for a configured source. svc is only needed
// for Google Sheets sources and may be nil otherwise.
func NewSource(cfg config.SourceConfig, svc *sheets.Service) (Source, error) {
	switch cfg.Kind {
	case config.SourceCSV:
		return NewCSVSource(cfg.Name, cfg.Dataset, cfg.Path, cfg.Delimiter), nil
	case config.SourceXLSX, config.SourceGRDF:
		return NewXLSXSource(cfg.Name, cfg.Dataset, cfg.Path, cfg.Sheet), nil
	case config.SourceSheets:
		if svc == nil {
			return nil, fmt.Errorf("%s: google sheets client is not configured", cfg.Name)
		}
		return NewSheetsSource(cfg.Name, cfg.Dataset, svc, cfg.SpreadsheetID, cfg.Range), nil
	default:
		return nil, fmt.Errorf("%s: %w %q", cfg.Name, ErrUnsupportedSource, cfg.Kind)
	}
}

// NewSources builds every configured source.
func NewSources(cfgs []config.SourceConfig, svc *sheets.Service) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := NewSource(c, svc)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}
