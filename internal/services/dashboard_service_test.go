package services_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/analytics"
	"energydash/internal/dataprocessing"
	"energydash/internal/events"
	"energydash/internal/exporter"
	"energydash/internal/period"
	"energydash/internal/services"
	"energydash/internal/session"
	"energydash/internal/shared/testutil"
	api "energydash/pkg/contracts/api/v1"
	"energydash/pkg/contracts/domain"
	contractevents "energydash/pkg/contracts/events"
)

type stubLoader struct {
	snap    *dataprocessing.Snapshot
	err     error
	started chan struct{}
	block   chan struct{}
}

func (l *stubLoader) Load(ctx context.Context) (*dataprocessing.Snapshot, error) {
	if l.block != nil {
		close(l.started)
		<-l.block
	}
	return l.snap, l.err
}

type recorder struct {
	mu     sync.Mutex
	events []contractevents.Event
}

func (r *recorder) publisher() events.Publisher {
	return events.PublisherFunc(func(ctx context.Context, e contractevents.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
}

func (r *recorder) types() []contractevents.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contractevents.MessageType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func fixtureSnapshot(t *testing.T) *dataprocessing.Snapshot {
	t.Helper()
	global := dataprocessing.NewDataset("global", []domain.Record{
		testutil.Rec(t, "PTWE35", "", "2024-01-10", 100, 40, 100),
		testutil.Rec(t, "PTWE35", "", "2024-02-10", 300, 60, 200),
		testutil.Rec(t, "PTWE89", "", "2024-03-10", 600, 90, 300),
		testutil.Rec(t, "", "", "2024-03-11", 10, 10, 10),
	})
	machines := dataprocessing.NewDataset("machines", []domain.Record{
		testutil.Rec(t, "PTWE35", "M1", "2024-01-10", 100, 40, 100),
		testutil.Rec(t, "PTWE35", "M2", "2024-01-12", 200, 40, 100),
	})
	return &dataprocessing.Snapshot{
		Datasets: map[string]*dataprocessing.Dataset{"global": global, "machines": machines},
		Reports:  []domain.LoadReport{{Source: "global.csv", Dataset: "global", Rows: 5, Dropped: 1}},
		LoadedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func loaded(t *testing.T) (*services.DashboardService, *recorder) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	rec := &recorder{}
	svc := services.NewDashboardService(&stubLoader{snap: fixtureSnapshot(t)}, rec.publisher(), nil, false, logger)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	return svc, rec
}

func TestDashboardBeforeLoad(t *testing.T) {
	svc := services.NewDashboardService(&stubLoader{}, nil, nil, false, nil)

	assert.False(t, svc.Ready())
	_, err := svc.Datasets(context.Background())
	assert.ErrorIs(t, err, services.ErrSnapshotUnavailable)
	_, err = svc.Aggregate(context.Background(), nil, api.AggregateRequest{Dataset: "global"})
	assert.ErrorIs(t, err, services.ErrSnapshotUnavailable)
}

func TestDashboardReload(t *testing.T) {
	svc, rec := loaded(t)

	assert.True(t, svc.Ready())
	assert.Equal(t, []contractevents.MessageType{contractevents.MessageTypeDatasetReloaded}, rec.types())

	payload, ok := rec.events[0].Data.(contractevents.DatasetReloaded)
	require.True(t, ok)
	require.Len(t, payload.Datasets, 2)
	assert.Equal(t, "global", payload.Datasets[0].Name)
	assert.Equal(t, 4, payload.Datasets[0].Records)
	assert.Equal(t, 1, payload.Datasets[0].Dropped)
	assert.Equal(t, 1, payload.Datasets[0].Unresolved)
}

func TestDashboardReloadFailureKeepsSnapshot(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	loader := &stubLoader{snap: fixtureSnapshot(t)}
	rec := &recorder{}
	svc := services.NewDashboardService(loader, rec.publisher(), nil, false, logger)

	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	before, _ := svc.Snapshot()

	loader.err = errors.New("disk gone")
	loader.snap = nil
	_, err = svc.Reload(context.Background())
	require.Error(t, err)

	after, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.Equal(t, []contractevents.MessageType{
		contractevents.MessageTypeDatasetReloaded,
		contractevents.MessageTypeReloadFailed,
	}, rec.types())
}

func TestDashboardConcurrentReload(t *testing.T) {
	loader := &stubLoader{snap: fixtureSnapshot(t), started: make(chan struct{}), block: make(chan struct{})}
	svc := services.NewDashboardService(loader, nil, nil, false, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reload(context.Background())
		done <- err
	}()

	<-loader.started
	_, err := svc.Reload(context.Background())
	assert.ErrorIs(t, err, services.ErrReloadInProgress)

	close(loader.block)
	require.NoError(t, <-done)
}

func TestDashboardDatasets(t *testing.T) {
	svc, _ := loaded(t)

	resp, err := svc.Datasets(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Datasets, 2)

	global := resp.Datasets[0]
	assert.Equal(t, []string{"PTWE35", "PTWE89"}, global.Sites)
	assert.Equal(t, domain.GroupBySite, global.DefaultGroupBy)
	assert.Equal(t, api.KeyRange{First: 202401, Last: 202403, FirstLabel: "January 2024", LastLabel: "March 2024"}, global.Bounds["month"])

	machines := resp.Datasets[1]
	assert.Equal(t, domain.GroupByMachine, machines.DefaultGroupBy)
	assert.Equal(t, []string{"M1", "M2"}, machines.MachinesBySite["PTWE35"])

	assert.Len(t, resp.Metrics, len(domain.Metrics))
	assert.Len(t, resp.Granularity, 5)
}

func TestDashboardAggregate(t *testing.T) {
	svc, _ := loaded(t)
	sess := session.NewStore(time.Hour, nil).Create()

	resp, err := svc.Aggregate(context.Background(), sess, api.AggregateRequest{
		Dataset:     "global",
		SiteMode:    "total",
		Metric:      string(domain.MetricGas),
		Granularity: "quarter",
		Start:       "Q1 2024",
		End:         "2024-03-31",
	})
	require.NoError(t, err)
	require.Len(t, resp.Result.Rows, 1)
	assert.Equal(t, 1000.0, resp.Result.Rows[0].Value)
	assert.Equal(t, domain.SiteTotal, resp.Result.Rows[0].Group)
	assert.Equal(t, "Q1 2024", resp.Table.Rows[0].Period)
	require.Len(t, resp.Chart.Series, 1)

	last, ok := sess.LastRequest()
	require.True(t, ok)
	assert.Equal(t, 20241, last.Start)
	assert.Equal(t, 20241, last.End)
}

func TestDashboardDateBoundsFollowWeekPolicy(t *testing.T) {
	deriver := period.NewDeriver(period.WeekPolicyCalendar)
	records := []domain.Record{
		testutil.Rec(t, "PTWE35", "", "2024-12-30", 700, 0, 100),
		testutil.Rec(t, "PTWE35", "", "2024-06-10", 50, 0, 100),
	}
	for i := range records {
		records[i].Calendar = deriver.Derive(records[i].Date)
	}
	snap := &dataprocessing.Snapshot{
		Datasets:   map[string]*dataprocessing.Dataset{"global": dataprocessing.NewDataset("global", records)},
		WeekPolicy: period.WeekPolicyCalendar,
	}
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewDashboardService(&stubLoader{snap: snap}, nil, nil, false, logger)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Aggregate(context.Background(), nil, api.AggregateRequest{
		Dataset:     "global",
		SiteMode:    "total",
		Metric:      string(domain.MetricGas),
		Granularity: "week",
		Start:       "2024-12-30",
		End:         "2024-12-30",
	})
	require.NoError(t, err)
	require.Len(t, resp.Result.Rows, 1)
	assert.Equal(t, 202401, resp.Result.Rows[0].PeriodKey)
	assert.Equal(t, 700.0, resp.Result.Rows[0].Value)
}

func TestDashboardAggregateInvalid(t *testing.T) {
	svc, _ := loaded(t)

	tests := []struct {
		name string
		req  api.AggregateRequest
		want error
	}{
		{
			name: "unknown dataset",
			req:  api.AggregateRequest{Dataset: "nope", Metric: "gas_kwh", Granularity: "month"},
			want: dataprocessing.ErrUnknownDataset,
		},
		{
			name: "bad start",
			req:  api.AggregateRequest{Dataset: "global", Metric: "gas_kwh", Granularity: "month", Start: "someday"},
			want: services.ErrInvalidInput,
		},
		{
			name: "unknown metric",
			req:  api.AggregateRequest{Dataset: "global", Metric: "steam", Granularity: "month"},
			want: analytics.ErrInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Aggregate(context.Background(), nil, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDashboardRegression(t *testing.T) {
	svc, _ := loaded(t)

	resp, err := svc.Regression(context.Background(), nil, api.AggregateRequest{
		Dataset:     "global",
		SiteMode:    "total",
		Metric:      string(domain.MetricGasPrediction),
		Granularity: "month",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.005, resp.Regression.Slope, 1e-9)
	assert.InDelta(t, 0.5, resp.Regression.Intercept, 1e-9)
	assert.Equal(t, resp.Regression.Equation, resp.Chart.Equation)
}

func TestDashboardRegressionInsufficientData(t *testing.T) {
	svc, _ := loaded(t)

	_, err := svc.Regression(context.Background(), nil, api.AggregateRequest{
		Dataset:     "global",
		SiteMode:    "total",
		Metric:      string(domain.MetricGasPrediction),
		Granularity: "year",
	})
	assert.ErrorIs(t, err, analytics.ErrInsufficientData)
}

func TestDashboardSupersededRequest(t *testing.T) {
	svc, _ := loaded(t)
	sess := session.NewStore(time.Hour, nil).Create()

	ctx, done := sess.Begin(context.Background())
	defer done()

	_, err := svc.Aggregate(context.Background(), sess, api.AggregateRequest{
		Dataset: "global", Metric: "gas_kwh", Granularity: "month",
	})
	require.NoError(t, err)

	assert.Error(t, ctx.Err())
	assert.True(t, session.Superseded(ctx))
}

func TestDashboardExport(t *testing.T) {
	svc, _ := loaded(t)
	req := api.AggregateRequest{Dataset: "global", SiteMode: "total", Metric: "gas_kwh", Granularity: "year"}

	var csvOut bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), nil, req, exporter.FormatCSV, &csvOut))
	assert.Contains(t, csvOut.String(), "2024;Total;1000")

	var xlsxOut bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), nil, req, exporter.FormatXLSX, &xlsxOut))
	assert.Equal(t, "PK", xlsxOut.String()[:2])
}
