package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// LogRecord is one captured slog record with its attributes flattened,
// including those bound with Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// LogCapture is a slog.Handler that keeps every record in memory. Loggers
// derived with With share the same store.
type LogCapture struct {
	store *logStore
	bound []slog.Attr
	t     testing.TB
}

// NewTestLogger returns a logger writing into a fresh LogCapture. Records are
// echoed to t.Log so failing tests show what was logged.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	h := &LogCapture{store: &logStore{}, t: t}
	return slog.New(h), h
}

func (h *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.bound)+r.NumAttrs())
	for _, a := range h.bound {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.store.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{store: h.store, bound: append(slices.Clone(h.bound), attrs...), t: h.t}
}

// WithGroup is flat: group names are dropped.
func (h *LogCapture) WithGroup(string) slog.Handler { return h }

func (h *LogCapture) GetRecords() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return slices.Clone(h.store.records)
}

func (h *LogCapture) GetRecordsByLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.GetRecords() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record's message contains substr.
func (h *LogCapture) ContainsMessage(substr string) bool {
	return slices.ContainsFunc(h.GetRecords(), func(r LogRecord) bool {
		return strings.Contains(r.Message, substr)
	})
}

func (h *LogCapture) ContainsAttr(key string, value any) bool {
	return slices.ContainsFunc(h.GetRecords(), func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == value
	})
}

func (h *LogCapture) Count() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.records)
}

func (h *LogCapture) Clear() {
	h.store.mu.Lock()
	h.store.records = nil
	h.store.mu.Unlock()
}

// AssertLogContains fails t unless a record at level mentions message.
func AssertLogContains(t testing.TB, h *LogCapture, level slog.Level, message string) bool {
	t.Helper()
	msgs := make([]string, 0)
	for _, r := range h.GetRecordsByLevel(level) {
		if strings.Contains(r.Message, message) {
			return true
		}
		msgs = append(msgs, r.Message)
	}
	return assert.Failf(t, "log message not found", "level %s, want %q, got %q", level, message, msgs)
}

func AssertLogAttr(t testing.TB, h *LogCapture, key string, want any) bool {
	t.Helper()
	return assert.Truef(t, h.ContainsAttr(key, want), "no record carries %s=%v", key, want)
}
