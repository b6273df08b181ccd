// Package main provides the entrypoint for the data selector API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/api"
	"github.com/ukair/dataselector/internal/api/middleware"
	"github.com/ukair/dataselector/internal/catalog"
	"github.com/ukair/dataselector/internal/database"
	"github.com/ukair/dataselector/internal/export"
	"github.com/ukair/dataselector/internal/provider/resilience"
	"github.com/ukair/dataselector/internal/session"
	"github.com/ukair/dataselector/internal/telemetry"
	"github.com/ukair/dataselector/internal/ukair"
	"github.com/ukair/dataselector/internal/wizard"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dataselector-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting data selector API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	sampleRatio := 0.0
	if raw := os.Getenv("OTEL_SAMPLE_RATIO"); raw != "" {
		parsed, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			log.Fatal().Err(parseErr).Str("value", raw).Msg("invalid OTEL_SAMPLE_RATIO")
		}
		sampleRatio = parsed
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
		SampleRatio:    sampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Session store: in-memory by default, PostgreSQL when configured.
	// Postgres keeps wizard selections across instance restarts.
	var store session.Store
	if os.Getenv("SESSION_STORE") == "postgres" {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		if schemaErr := database.EnsureSchema(ctx, pool); schemaErr != nil {
			log.Fatal().Err(schemaErr).Msg("failed to ensure database schema")
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		store = session.NewPostgresStore(pool)
	} else {
		store = session.NewMemoryStore()
		log.Info().Msg("using in-memory session store")
	}

	// Session cookie codec (get signing key from environment)
	signingKey := os.Getenv("SESSION_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default session signing key - not secure for production")
	}

	codec := session.NewCookieCodec(session.CookieCodecConfig{
		SigningKey: signingKey,
		Secure:     env != "development",
	})

	upstreamMetrics, err := telemetry.NewUpstreamMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize upstream metrics")
	}

	// Provider registry tracks upstream circuit breaker health
	providers := resilience.NewRegistry()

	// UK-AIR data selector client. The count preflight can take close
	// to a minute for wide selections, so the HTTP timeout is generous
	// and failed calls are never retried automatically.
	ukairHTTP := resilience.NewClient(resilience.ClientConfig{
		Name:    ukair.ProviderName,
		Timeout: ukair.DefaultTimeout,
	})
	providers.Register(ukair.ProviderName, ukairHTTP)

	ukairClient := ukair.NewClient(ukair.ClientConfig{
		BaseURL:    os.Getenv("UKAIR_BASE_URL"),
		HTTPClient: ukairHTTP,
		Metrics:    upstreamMetrics,
	})
	log.Info().Msg("uk-air client initialized")

	// Local authority registry client
	registryHTTP := resilience.NewClient(resilience.ClientConfig{
		Name: "la-registry",
	})
	providers.Register("la-registry", registryHTTP)

	catalogService := catalog.NewService(catalog.ServiceConfig{
		Fetcher: catalog.NewClient(catalog.ClientConfig{
			BaseURL:    os.Getenv("LA_REGISTRY_BASE_URL"),
			HTTPClient: registryHTTP,
		}),
		Logger:   log,
		CacheTTL: 1 * time.Hour,
		Metrics:  upstreamMetrics,
	})
	log.Info().Msg("local authority catalog initialized")

	// Station count preflight
	preflight := wizard.NewPreflight(ukairClient, log)

	// Export job orchestrator
	pollInterval := export.DefaultPollInterval
	if raw := os.Getenv("EXPORT_POLL_INTERVAL"); raw != "" {
		parsed, parseErr := time.ParseDuration(raw)
		if parseErr != nil {
			log.Fatal().Err(parseErr).Str("value", raw).Msg("invalid EXPORT_POLL_INTERVAL")
		}
		pollInterval = parsed
	}

	orchestrator := export.NewOrchestrator(export.Config{
		Client:       ukairClient,
		Logger:       log,
		PollInterval: pollInterval,
	})
	log.Info().
		Dur("poll_interval", pollInterval).
		Msg("export orchestrator initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		Store:        store,
		CookieCodec:  codec,
		Preflight:    preflight,
		Orchestrator: orchestrator,
		Catalog:      catalogService,
		Providers:    providers,
	})

	// Create HTTP server. The blocking download endpoint holds its
	// connection open while the export job runs, so the write timeout
	// must exceed the orchestrator's polling deadline.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: export.DefaultMaxElapsed + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
