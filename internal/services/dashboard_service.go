package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"energydash/internal/analytics"
	"energydash/internal/dataprocessing"
	"energydash/internal/events"
	"energydash/internal/exporter"
	"energydash/internal/infrastructure"
	"energydash/internal/period"
	"energydash/internal/session"
	api "energydash/pkg/contracts/api/v1"
	"energydash/pkg/contracts/domain"
	contractevents "energydash/pkg/contracts/events"
)

// SnapshotLoader produces a fresh snapshot of every configured source.
type SnapshotLoader interface {
	Load(ctx context.Context) (*dataprocessing.Snapshot, error)
}

// DashboardService owns the current snapshot and runs pipeline requests
// against it. Readers never lock; Reload swaps the snapshot atomically.
type DashboardService struct {
	loader      SnapshotLoader
	snapshot    atomic.Pointer[dataprocessing.Snapshot]
	reloading   sync.Mutex
	publisher   events.Publisher
	metrics     *infrastructure.BusinessMetrics
	clipDefault bool
	logger      *slog.Logger
}

// NewDashboardService creates the service. publisher and metrics may be nil.
func NewDashboardService(loader SnapshotLoader, publisher events.Publisher, metrics *infrastructure.BusinessMetrics, clipDefault bool, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		loader:      loader,
		publisher:   publisher,
		metrics:     metrics,
		clipDefault: clipDefault,
		logger:      logger.With(slog.String("service", "dashboard")),
	}
}

// Snapshot returns the current snapshot.
func (s *DashboardService) Snapshot() (*dataprocessing.Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrSnapshotUnavailable
	}
	return snap, nil
}

// Ready reports whether a snapshot is loaded.
func (s *DashboardService) Ready() bool {
	return s.snapshot.Load() != nil
}

// Reload loads every source and swaps the snapshot in. On failure the
// previous snapshot stays in place. Concurrent calls fail fast with
// ErrReloadInProgress.
func (s *DashboardService) Reload(ctx context.Context) (*api.ReloadResponse, error) {
	if !s.reloading.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer s.reloading.Unlock()

	start := time.Now()
	snap, err := s.loader.Load(ctx)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("status", status))
		s.metrics.ReloadsTotal.Add(ctx, 1, attrs)
		s.metrics.ReloadDuration.Record(ctx, duration.Seconds(), attrs)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Reload failed, keeping previous snapshot",
			slog.String("error", err.Error()),
			slog.Bool("has_previous", s.Ready()))
		s.publish(ctx, contractevents.MessageTypeReloadFailed, contractevents.ReloadFailed{Error: err.Error()})
		return nil, fmt.Errorf("reload: %w", err)
	}

	s.snapshot.Store(snap)
	s.logger.InfoContext(ctx, "Snapshot reloaded",
		slog.Int("datasets", len(snap.Datasets)),
		slog.Duration("duration", duration))
	s.publish(ctx, contractevents.MessageTypeDatasetReloaded, reloadedPayload(snap, duration))

	return &api.ReloadResponse{
		Datasets: snap.Names(),
		Reports:  snap.Reports,
		LoadedAt: snap.LoadedAt,
		Duration: duration.String(),
	}, nil
}

func (s *DashboardService) publish(ctx context.Context, typ contractevents.MessageType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(ctx, typ, data)); err != nil {
		s.logger.WarnContext(ctx, "Event not delivered to every sink",
			slog.String("event_type", string(typ)),
			slog.String("error", err.Error()))
	}
}

func reloadedPayload(snap *dataprocessing.Snapshot, duration time.Duration) contractevents.DatasetReloaded {
	dropped := make(map[string]int)
	for _, r := range snap.Reports {
		dropped[r.Dataset] += r.Dropped
	}
	payload := contractevents.DatasetReloaded{LoadedAt: snap.LoadedAt, DurationMS: duration.Milliseconds()}
	for _, name := range snap.Names() {
		ds := snap.Datasets[name]
		payload.Datasets = append(payload.Datasets, contractevents.DatasetSummary{
			Name:       name,
			Records:    len(ds.Records),
			Sites:      len(ds.Sites),
			Dropped:    dropped[name],
			Unresolved: ds.Unresolved,
		})
	}
	return payload
}

// Datasets describes every dataset of the current snapshot.
func (s *DashboardService) Datasets(ctx context.Context) (*api.DatasetsResponse, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	resp := &api.DatasetsResponse{
		Reports:      snap.Reports,
		LoadedAt:     snap.LoadedAt,
		ClipOutliers: s.clipDefault,
		Granularity:  lo.Map(domain.Granularities, func(g domain.Granularity, _ int) string { return string(g) }),
		Metrics: lo.Map(domain.Metrics, func(m domain.Metric, _ int) api.MetricInfo {
			return api.MetricInfo{
				Name:       m,
				Label:      m.Label(),
				Unit:       m.Unit(),
				Ratio:      m.Kind() == domain.KindRatio,
				Regression: m.Regression(),
			}
		}),
	}
	for _, name := range snap.Names() {
		resp.Datasets = append(resp.Datasets, describe(snap.Datasets[name]))
	}
	return resp, nil
}

func describe(ds *dataprocessing.Dataset) api.DatasetInfo {
	info := api.DatasetInfo{
		Name:           ds.Name,
		Records:        len(ds.Records),
		Unresolved:     ds.Unresolved,
		Sites:          ds.Sites,
		Machines:       ds.Machines,
		DefaultGroupBy: ds.DefaultGroupBy(),
		Bounds:         make(map[string]api.KeyRange),
	}
	if ds.HasMachines() {
		info.MachinesBySite = ds.MachinesBySite
	}
	for _, g := range domain.Granularities {
		first, last, ok := ds.Bounds(g)
		if !ok {
			continue
		}
		info.Bounds[string(g)] = api.KeyRange{
			First:      first,
			Last:       last,
			FirstLabel: period.Format(g, first),
			LastLabel:  period.Format(g, last),
		}
	}
	return info
}

// Prepare resolves req against the current snapshot: the dataset must
// exist, period bounds are parsed into keys and defaults are filled.
func (s *DashboardService) Prepare(req api.AggregateRequest) (domain.AggregationRequest, *dataprocessing.Dataset, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return domain.AggregationRequest{}, nil, err
	}
	ds, err := snap.Dataset(req.Dataset)
	if err != nil {
		return domain.AggregationRequest{}, nil, err
	}

	g := domain.Granularity(req.Granularity)
	deriver := snap.Deriver()
	start, err := deriver.ParseKey(g, req.Start)
	if err != nil {
		return domain.AggregationRequest{}, nil, fmt.Errorf("%w: start: %v", ErrInvalidInput, err)
	}
	end, err := deriver.ParseKey(g, req.End)
	if err != nil {
		return domain.AggregationRequest{}, nil, fmt.Errorf("%w: end: %v", ErrInvalidInput, err)
	}

	dreq, err := analytics.Normalize(req.ToDomain(start, end, s.clipDefault), ds.DefaultGroupBy())
	if err != nil {
		return domain.AggregationRequest{}, nil, err
	}
	return dreq, ds, nil
}

// run wraps a pipeline call with the session's last-request-wins rule and
// the aggregation metrics.
func (s *DashboardService) run(ctx context.Context, sess *session.Session, req domain.AggregationRequest, fn func(context.Context) error) error {
	if sess != nil {
		var done func()
		ctx, done = sess.Begin(ctx)
		defer done()
		sess.Remember(req)
	}

	start := time.Now()
	err := fn(ctx)
	if err != nil && ctx.Err() != nil && session.Superseded(ctx) {
		err = fmt.Errorf("%w: %v", session.ErrSuperseded, err)
	}

	if s.metrics != nil {
		status := "success"
		switch {
		case errors.Is(err, session.ErrSuperseded):
			status = "superseded"
		case err != nil:
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("metric", string(req.Metric)),
			attribute.String("granularity", string(req.Granularity)),
			attribute.String("status", status),
		)
		s.metrics.AggregationsTotal.Add(ctx, 1, attrs)
		s.metrics.AggregationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if errors.Is(err, analytics.ErrInsufficientData) {
			s.metrics.RegressionFailures.Add(ctx, 1)
		}
	}
	return err
}

// Aggregate runs the pipeline and builds the display table and chart.
// sess may be nil for callers without a session.
func (s *DashboardService) Aggregate(ctx context.Context, sess *session.Session, req api.AggregateRequest) (*api.AggregateResponse, error) {
	dreq, ds, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	var resp *api.AggregateResponse
	err = s.run(ctx, sess, dreq, func(ctx context.Context) error {
		res, err := analytics.Aggregate(ctx, ds.Records, dreq)
		if err != nil {
			return err
		}
		resp = &api.AggregateResponse{
			Request: dreq,
			Result:  res,
			Table:   analytics.Display(res),
			Chart:   analytics.BuildChart(res),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Aggregation complete",
		slog.String("dataset", dreq.Dataset),
		slog.String("metric", string(dreq.Metric)),
		slog.String("granularity", string(dreq.Granularity)),
		slog.Int("rows", len(resp.Result.Rows)),
		slog.Int("excluded", resp.Result.Excluded))
	return resp, nil
}

// Regression runs the pipeline and fits the ratio on mass. A fit on fewer
// than two distinct masses returns an error wrapping
// analytics.ErrInsufficientData.
func (s *DashboardService) Regression(ctx context.Context, sess *session.Session, req api.AggregateRequest) (*api.RegressionResponse, error) {
	dreq, ds, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	var resp *api.RegressionResponse
	err = s.run(ctx, sess, dreq, func(ctx context.Context) error {
		res, fit, err := analytics.Regress(ctx, ds.Records, dreq)
		if err != nil {
			return err
		}
		resp = &api.RegressionResponse{
			AggregateResponse: api.AggregateResponse{
				Request: dreq,
				Result:  res,
				Table:   analytics.Display(res),
				Chart:   analytics.BuildRegressionChart(res, fit),
			},
			Regression: fit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Export runs the pipeline and writes the display table to out in format.
func (s *DashboardService) Export(ctx context.Context, sess *session.Session, req api.AggregateRequest, format exporter.Format, out io.Writer) error {
	resp, err := s.Aggregate(ctx, sess, req)
	if err != nil {
		return err
	}
	switch format {
	case exporter.FormatXLSX:
		return exporter.WriteXLSX(out, resp.Table, "")
	default:
		return exporter.WriteTable(out, resp.Table)
	}
}
