package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"energydash/internal/config"
	"energydash/pkg/contracts"
)

// InstrumentationName names the tracer and meter of the service.
const InstrumentationName = "energydash"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// NoopProviders returns providers that record nothing. Used by the CLI and tests.
func NoopProviders(logger *slog.Logger) *OTelProviders {
	return &OTelProviders{
		Tracer:         tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:          metricnoop.NewMeterProvider().Meter(InstrumentationName),
		PrometheusHTTP: http.NotFoundHandler(),
		Logger:         logger,
	}
}

// InitializeOTel sets up tracing (stdout exporter) and metrics (Prometheus
// exporter on a private registry) according to cfg. Disabled signals fall
// back to no-op implementations.
func InitializeOTel(cfg config.OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()
	providers := NoopProviders(logger)

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(contracts.Version),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)

	if cfg.TracingEnabled {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(contracts.Version))
		otel.SetTracerProvider(tp)
	}

	if cfg.MetricsEnabled {
		registry := prom.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(contracts.Version))
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.TracingEnabled),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled))

	return providers, nil
}

// BusinessMetrics holds the application instruments
type BusinessMetrics struct {
	// HTTP
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Pipeline
	AggregationsTotal   metric.Int64Counter
	AggregationDuration metric.Float64Histogram
	RegressionFailures  metric.Int64Counter

	// Ingestion
	RowsIngested   metric.Int64Counter
	RowsDropped    metric.Int64Counter
	ReloadsTotal   metric.Int64Counter
	ReloadDuration metric.Float64Histogram

	// Sessions and notifications
	SessionsActive       metric.Int64UpDownCounter
	WebSocketConnections metric.Int64UpDownCounter
	EventsPublished      metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.AggregationsTotal, "energydash_aggregations_total", "Aggregation requests by metric, granularity and status"},
		{&m.RegressionFailures, "energydash_regression_failures_total", "Regression fits rejected for insufficient data"},
		{&m.RowsIngested, "energydash_rows_ingested_total", "Records accepted by ingestion"},
		{&m.RowsDropped, "energydash_rows_dropped_total", "Records dropped by ingestion, by reason"},
		{&m.ReloadsTotal, "energydash_reloads_total", "Snapshot reloads by status"},
		{&m.EventsPublished, "energydash_events_published_total", "Events published by sink"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&m.AggregationDuration, "energydash_aggregation_duration_seconds", "Pipeline run duration in seconds"},
		{&m.ReloadDuration, "energydash_reload_duration_seconds", "Snapshot reload duration in seconds"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, fmt.Errorf("create %s: %w", h.name, err)
		}
	}

	gauges := []struct {
		dst  *metric.Int64UpDownCounter
		name string
		desc string
	}{
		{&m.HTTPActiveRequests, "http_active_requests", "Number of active HTTP requests"},
		{&m.SessionsActive, "energydash_sessions_active", "Open dashboard sessions"},
		{&m.WebSocketConnections, "energydash_websocket_connections", "Connected WebSocket clients"},
	}
	for _, g := range gauges {
		if *g.dst, err = meter.Int64UpDownCounter(g.name, metric.WithDescription(g.desc)); err != nil {
			return nil, fmt.Errorf("create %s: %w", g.name, err)
		}
	}

	return m, nil
}

// MustBusinessMetrics creates the instruments of p, falling back to a no-op
// meter if the configured one rejects them.
func MustBusinessMetrics(p *OTelProviders) *BusinessMetrics {
	m, err := CreateBusinessMetrics(p.Meter)
	if err != nil {
		m, _ = CreateBusinessMetrics(metricnoop.NewMeterProvider().Meter(InstrumentationName))
	}
	return m
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records err on the span of ctx and marks it failed.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
