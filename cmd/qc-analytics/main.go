package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"qc-analytics/internal/commands"
	"qc-analytics/internal/database"
	"qc-analytics/internal/events"
	"qc-analytics/internal/files"
	"qc-analytics/internal/handlers"
	"qc-analytics/internal/logging"
	"qc-analytics/internal/metrics"
	"qc-analytics/internal/middleware"
	"qc-analytics/internal/startup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	files.SetObserver(metrics.NewFilesObserver())

	// Initialize database
	ctx := context.Background()
	dbStart := time.Now()
	db, err := database.Open(ctx, config.DatabasePath, nil)
	if err != nil {
		startup.LogFatal("Failed to open database: %v", err)
	}
	if err := db.InitDatabase(ctx); err != nil {
		_ = db.Close()
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	journalMode, err := db.JournalMode(ctx)
	if err != nil {
		logging.Warn("Could not read journal mode: %v", err)
	}
	startup.LogDatabaseInit(db.Path(), journalMode, time.Since(dbStart))

	// Event hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := events.NewHub()
	go hub.Run(hubCtx)
	startup.LogEventHubInit()

	svc := commands.New(db, hub, db.Path())
	h := handlers.New(svc, db, hub)

	// Metrics collector and server
	var collector *metrics.Collector
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		collector = metrics.NewCollector(db, db.Path(), config.StatsInterval)
		collector.Start()

		metricsSrv = &http.Server{
			Addr:              config.Host + ":" + config.MetricsPort,
			Handler:           setupMetricsRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           buildHandler(router, config.LogHealthChecks),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleShutdown(shutdownDeps{
			server:        srv,
			metricsServer: metricsSrv,
			collector:     collector,
			stopHub:       stopHub,
			db:            db,
		})
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Host:            config.Host,
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// setupRouter registers the command, event and probe routes. Request
// metrics are recorded per route template.
func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	// Registered on the root router: a subrouter reports a method mismatch
	// as 404.
	r.HandleFunc("/api/commands", h.ListCommands).Methods(http.MethodGet)
	r.HandleFunc("/api/invoke/{command}", h.Invoke).Methods(http.MethodPost)
	r.HandleFunc("/api/events", h.Events).Methods(http.MethodGet)

	return r
}

func setupMetricsRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	return r
}

// buildHandler wraps the router, outermost first: request id, access log,
// compression.
func buildHandler(router http.Handler, logHealthChecks bool) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = logHealthChecks

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)
	handler = middleware.Logger(loggingConfig)(handler)
	return middleware.RequestID(handler)
}

type shutdownDeps struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	stopHub       context.CancelFunc
	db            *database.Database
}

func handleShutdown(deps shutdownDeps) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Event clients hold hijacked connections that server.Shutdown does not
	// close.
	startup.LogShutdownStep("Closing event stream")
	deps.stopHub()
	startup.LogShutdownStepComplete("Event stream closed")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := deps.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if deps.collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		deps.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if deps.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := deps.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing database")
	if err := deps.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
