package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"energydash/internal/infrastructure"
	"energydash/pkg/contracts/events"
)

// Publisher delivers events to one sink.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event events.Event) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}

// New builds an event of type typ stamped with a fresh id, the current time
// and the trace id of ctx.
func New(ctx context.Context, typ events.MessageType, data interface{}) events.Event {
	return events.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		TraceID:   infrastructure.GetTraceID(ctx),
		Data:      data,
	}
}

type sink struct {
	name      string
	publisher Publisher
}

// Fanout publishes each event to every registered sink.
type Fanout struct {
	mu      sync.RWMutex
	sinks   []sink
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewFanout creates an empty fanout. metrics may be nil.
func NewFanout(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		logger:  logger.With(slog.String("component", "events")),
		metrics: metrics,
	}
}

// Add registers p under name.
func (f *Fanout) Add(name string, p Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sink{name: name, publisher: p})
}

// Sinks returns the registered sink names in order.
func (f *Fanout) Sinks() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.name
	}
	return names
}

// Publish delivers event to every sink. A failing sink does not stop the
// others; all failures are joined into the returned error.
func (f *Fanout) Publish(ctx context.Context, event events.Event) error {
	f.mu.RLock()
	sinks := append([]sink(nil), f.sinks...)
	f.mu.RUnlock()

	var errs []error
	for _, s := range sinks {
		err := s.publisher.Publish(ctx, event)
		outcome := "ok"
		if err != nil {
			outcome = "error"
			errs = append(errs, err)
			f.logger.WarnContext(ctx, "Failed to publish event",
				slog.String("sink", s.name),
				slog.String("event_type", string(event.Type)),
				slog.String("error", err.Error()))
		}
		if f.metrics != nil {
			f.metrics.EventsPublished.Add(ctx, 1, metric.WithAttributes(
				attribute.String("sink", s.name),
				attribute.String("type", string(event.Type)),
				attribute.String("outcome", outcome),
			))
		}
	}
	return errors.Join(errs...)
}
