package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"energydash/internal/config"
	"energydash/pkg/contracts"
)

// SnapshotSource reports whether data is loaded and when.
type SnapshotSource interface {
	Ready() bool
}

// ClientCounter reports the number of live push clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	snapshots SnapshotSource
	clients   ClientCounter
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. clients and paths may be nil.
func NewHealthService(snapshots SnapshotSource, clients ClientCounter, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		snapshots: snapshots,
		clients:   clients,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "Health check",
		slog.String("uptime", time.Since(hs.startTime).String()))
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports not_ready until a snapshot is loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"data":      hs.checkDataHealth(),
			"websocket": hs.checkWebSocketHealth(),
		},
	}
	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"api_version":  info.APIVersion,
		"table_layout": info.TableLayout,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.snapshots == nil || !hs.snapshots.Ready() {
		return ServiceHealth{Status: "not_ready", Message: "no snapshot loaded"}
	}
	if hs.paths != nil && hs.paths.DataDir != "" {
		if _, err := os.Stat(hs.paths.DataDir); err != nil {
			return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data directory not accessible: %v", err)}
		}
	}
	return ServiceHealth{Status: "ready", Message: "Snapshot loaded"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket push disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
