package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	apierrors "energydash/internal/errors"
	"energydash/internal/infrastructure"
	"energydash/pkg/contracts/domain"
)

// Loader reads every source concurrently and assembles a Snapshot.
type Loader struct {
	sources     []Source
	normalizer  *Normalizer
	concurrency int
	logger      *slog.Logger
	metrics     *infrastructure.BusinessMetrics
	now         func() time.Time
}

// NewLoader creates a loader. metrics may be nil.
func NewLoader(sources []Source, normalizer *Normalizer, concurrency int, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		sources:     sources,
		normalizer:  normalizer,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "loader")),
		metrics:     metrics,
		now:         time.Now,
	}
}

type sourceResult struct {
	order   int
	dataset string
	records []domain.Record
	report  domain.LoadReport
}

// Load reads all sources. Any failing source fails the whole load so a
// partial snapshot is never published.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := l.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	var mu sync.Mutex
	results := make([]sourceResult, 0, len(l.sources))

	for i, src := range l.sources {
		g.Go(func() error {
			res, err := l.loadSource(gctx, src)
			if err != nil {
				return apierrors.NewSourceError(src.Name(), err).WithContext("dataset", src.Dataset())
			}
			res.order = i

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.ErrorContext(ctx, "load failed", slog.String("error", err.Error()))
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].order < results[j].order })

	byDataset := make(map[string][]domain.Record)
	snap := &Snapshot{
		Datasets: make(map[string]*Dataset),
		Reports:  make([]domain.LoadReport, 0, len(results)),
		LoadedAt: l.now(),

		WeekPolicy: l.normalizer.WeekPolicy(),
	}
	for _, res := range results {
		byDataset[res.dataset] = append(byDataset[res.dataset], res.records...)
		snap.Reports = append(snap.Reports, res.report)
	}
	for name, records := range byDataset {
		snap.Datasets[name] = NewDataset(name, records)
	}

	l.logger.InfoContext(ctx, "sources loaded",
		slog.Int("sources", len(l.sources)),
		slog.Int("datasets", len(snap.Datasets)),
		slog.Duration("duration", l.now().Sub(start)),
	)
	return snap, nil
}

func (l *Loader) loadSource(ctx context.Context, src Source) (sourceResult, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return sourceResult{}, err
	}

	report := domain.LoadReport{Source: src.Name(), Dataset: src.Dataset()}
	records, err := l.normalizer.Normalize(rows, &report)
	if err != nil {
		return sourceResult{}, err
	}

	l.logger.DebugContext(ctx, "source parsed",
		slog.String("source", src.Name()),
		slog.String("dataset", src.Dataset()),
		slog.Int("rows", report.Rows),
		slog.Int("dropped", report.Dropped),
		slog.Int("unresolved", report.Unresolved),
	)
	if report.Dropped > 0 {
		l.logger.WarnContext(ctx, "rows dropped while parsing source",
			slog.String("source", src.Name()),
			slog.Any("reasons", report.Reasons),
		)
	}
	l.record(ctx, report, len(records))

	return sourceResult{dataset: src.Dataset(), records: records, report: report}, nil
}

func (l *Loader) record(ctx context.Context, report domain.LoadReport, kept int) {
	if l.metrics == nil {
		return
	}
	l.metrics.RowsIngested.Add(ctx, int64(kept), metric.WithAttributes(
		attribute.String("source", report.Source),
		attribute.String("dataset", report.Dataset),
	))
	for reason, n := range report.Reasons {
		l.metrics.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("source", report.Source),
			attribute.String("reason", reason),
		))
	}
}
