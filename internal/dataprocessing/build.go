package dataprocessing

import (
	"context"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"energydash/internal/config"
	"energydash/internal/infrastructure"
)

// NewLoaderFromConfig wires sources, normalizer and loader from cfg. A
// Sheets client is only created when a sheets source is configured.
func NewLoaderFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) (*Loader, error) {
	var svc *sheets.Service
	for _, s := range cfg.Sources {
		if s.Kind != config.SourceSheets {
			continue
		}
		var err error
		if svc, err = NewSheetsService(ctx, cfg.Sheets.CredentialsFile); err != nil {
			return nil, err
		}
		break
	}

	sources, err := NewSources(cfg.Sources, svc)
	if err != nil {
		return nil, err
	}
	ncfg, err := NormalizerConfigFrom(cfg)
	if err != nil {
		return nil, err
	}
	return NewLoader(sources, NewNormalizer(ncfg), cfg.Pipeline.LoadConcurrency, logger, metrics), nil
}
