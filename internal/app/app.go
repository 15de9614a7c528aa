package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"energydash/internal/config"
	"energydash/internal/dataprocessing"
	apierrors "energydash/internal/errors"
	"energydash/internal/events"
	"energydash/internal/exporter"
	"energydash/internal/infrastructure"
	customMiddleware "energydash/internal/middleware"
	"energydash/internal/services"
	"energydash/internal/session"
	handlers "energydash/internal/transport/http"
	ws "energydash/internal/websocket"
	"energydash/pkg/contracts"
	contractevents "energydash/pkg/contracts/events"
)

// AppName is the display name of the service.
const AppName = "energydash"

// sessionSweepInterval is how often idle sessions are evicted.
const sessionSweepInterval = 5 * time.Minute

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	WebSocketHub *ws.Hub
	Sessions     *session.Store
	Events       *events.Fanout
	Kafka        *events.KafkaPublisher
	Influx       *exporter.InfluxWriter

	Dashboard *services.DashboardService
	Access    *services.AccessService
	Health    *services.HealthService

	loader services.SnapshotLoader
	cancel context.CancelFunc
}

// NewApplication loads configuration and logging, then builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.OTel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return New(context.Background(), cfg, logger, otelProviders)
}

// New builds the application from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if providers == nil {
		providers = infrastructure.NoopProviders(logger)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("sources", len(cfg.Sources)))

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}

	loader, err := dataprocessing.NewLoaderFromConfig(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build loader: %w", err)
	}
	app.loader = loader

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics, ws.OptionsFrom(a.Config.WebSocket))

	a.Events = events.NewFanout(a.Logger, a.Metrics)
	a.Events.Add("websocket", a.WebSocketHub)

	if a.Config.Kafka.Enabled {
		kafka, err := events.NewKafkaPublisher(a.Config.Kafka, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize kafka publisher: %w", err)
		}
		a.Kafka = kafka
		a.Events.Add("kafka", kafka)
	}

	a.Dashboard = services.NewDashboardService(a.loader, a.Events, a.Metrics, a.Config.Pipeline.ClipOutliers, a.Logger)

	if a.Config.Influx.Enabled {
		influx, err := exporter.NewInfluxWriter(ctx, a.Config.Influx, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize influx writer: %w", err)
		}
		a.Influx = influx
		a.Events.Add("influx", events.PublisherFunc(a.pushSnapshot))
	}

	a.Sessions = session.NewStore(session.DefaultTTL, a.Logger)
	a.Sessions.OnChange = func(delta int64) {
		a.Metrics.SessionsActive.Add(context.Background(), delta)
	}

	a.Access = services.NewAccessService(a.Config.Auth, a.Logger)
	a.Health = services.NewHealthService(a.Dashboard, a.WebSocketHub, a.Config.GetPaths(), a.Logger)
	return nil
}

// pushSnapshot writes the records of a freshly loaded snapshot to InfluxDB.
func (a *Application) pushSnapshot(ctx context.Context, event contractevents.Event) error {
	if event.Type != contractevents.MessageTypeDatasetReloaded {
		return nil
	}
	snap, err := a.Dashboard.Snapshot()
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range snap.Names() {
		if _, err := a.Influx.Write(ctx, name, snap.Datasets[name].Records); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
	gate := customMiddleware.NewSessionGate(a.Sessions, a.Config.Auth.CookieName, a.Config.Auth.Enabled, a.Logger)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)

	// /ws bypasses the error middleware, whose writer wrapper cannot hijack.
	r.Group(func(r chi.Router) {
		r.Use(gate.Handler)
		r.Handle("/ws", handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))
	})

	r.Group(func(r chi.Router) {
		r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger, "/api/health", "/metrics").Handler)
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins:   a.Config.Security.AllowedOrigins,
				AllowCredentials: true,
				Logger:           a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(gate.Handler)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

			healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			r.Mount("/session", handlers.NewSessionHandler(a.Access, gate, validation, errorHandler, a.Logger).Routes())
			r.Mount("/dashboard", handlers.NewDashboardHandler(a.Dashboard, validation, errorHandler, a.Logger).Routes())
		})

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start runs the background services, loads the first snapshot and starts
// serving. A failed initial load is logged; the service answers 503 until a
// reload succeeds.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("build", contracts.GetVersionInfo().String()),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	bg, bgCancel := context.WithCancel(ctx)
	a.cancel = bgCancel

	a.WebSocketHub.Start()
	go a.Sessions.Run(bg, sessionSweepInterval)

	if _, err := a.Dashboard.Reload(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Initial load failed", slog.String("error", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.WebSocketHub.Stop()

	if a.Kafka != nil {
		if err := a.Kafka.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing kafka producer", slog.String("error", err.Error()))
		}
	}
	if a.Influx != nil {
		a.Influx.Close()
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
