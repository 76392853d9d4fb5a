package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/DukeRupert/atlas/internal"
	"github.com/DukeRupert/atlas/internal/events"
	"github.com/DukeRupert/atlas/internal/handler"
	"github.com/DukeRupert/atlas/internal/hazardlog"
	"github.com/DukeRupert/atlas/internal/middleware"
	"github.com/DukeRupert/atlas/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	clock := clockwork.NewRealClock()

	// Prompt artifact
	tmpl, err := loadPrompt(cfg)
	if err != nil {
		return fmt.Errorf("prompt initialization failed: %w", err)
	}
	logger.Info("Prompt loaded", "version", tmpl.Version)

	// AI provider
	provider, err := newTextGenerator(cfg, clock, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", provider.Name())

	// Hazard log sink
	store, closeStore, err := newStore(ctx, cfg, clock, logger)
	if err != nil {
		return fmt.Errorf("hazard log initialization failed: %w", err)
	}
	defer closeStore()

	hazardLog, err := hazardlog.New(store, clock, cfg.LogTimezone, logger)
	if err != nil {
		return fmt.Errorf("hazard log initialization failed: %w", err)
	}
	logger.Info("Hazard log ready", "sink", store.Name(), "timezone", cfg.LogTimezone.String())

	// Hazard events
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafka.Close()
		publisher = kafka
		logger.Info("Hazard events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize services
	extractor := service.NewHazardExtractor(provider, tmpl, logger)
	hazardService := service.NewHazardService(extractor, hazardLog, publisher, clock, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() {
		logger.Warn("METRICS_USERNAME/METRICS_PASSWORD not set, /metrics is unprotected")
	}
	requestLogging := middleware.NewRequestLoggingMiddleware(logger)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isSecure)
	cors := middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins)

	// Initialize handlers
	hazardHandler := handler.NewHazardHandler(hazardService, clock, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))
	hazardHandler.RegisterRoutes(mux)

	app := requestLogging.Handler(securityHeaders.Handler(cors.Handler(mux)))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: app,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
