// Package api provides the HTTP surface of the data selector wizard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/api/handler"
	"github.com/ukair/dataselector/internal/api/middleware"
	"github.com/ukair/dataselector/internal/api/response"
	"github.com/ukair/dataselector/internal/catalog"
	"github.com/ukair/dataselector/internal/export"
	"github.com/ukair/dataselector/internal/provider/resilience"
	"github.com/ukair/dataselector/internal/session"
	"github.com/ukair/dataselector/internal/view"
	"github.com/ukair/dataselector/internal/wizard"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version      string
	BuildTime    string
	Logger       zerolog.Logger
	ServiceName  string
	Metrics      *middleware.Metrics
	Store        session.Store
	CookieCodec  *session.CookieCodec
	Preflight    *wizard.Preflight
	Orchestrator *export.Orchestrator
	Catalog      *catalog.Service
	Renderer     view.Renderer
	Providers    *resilience.Registry
}

// NewRouter creates a new chi router with all wizard routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "dataselector-api"
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = view.NewJSONRenderer()
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))                   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))                 // Panic recovery
	r.Use(chimiddleware.RealIP)                            // Real IP extraction
	r.Use(middleware.SecurityHeaders)                      // Security headers
	r.Use(middleware.RequireTLS)                           // TLS enforcement (REQUIRE_TLS=true)
	r.Use(middleware.Session(cfg.CookieCodec, cfg.Logger)) // Session cookie

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers)
	wizardHandler := handler.NewWizardHandler(handler.WizardHandlerConfig{
		Store:       cfg.Store,
		Accumulator: wizard.NewAccumulator(),
		Preflight:   cfg.Preflight,
		Catalog:     cfg.Catalog,
		Renderer:    renderer,
		Logger:      cfg.Logger,
	})
	downloadHandler := handler.NewDownloadHandler(handler.DownloadHandlerConfig{
		Store:        cfg.Store,
		Orchestrator: cfg.Orchestrator,
		Preflight:    cfg.Preflight,
		Renderer:     renderer,
		Logger:       cfg.Logger,
	})

	// Rate limit tiers
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)        // 100 req/min
	expensiveRateLimit := middleware.RateLimitBySession(middleware.ExpensiveRateLimit) // 30 req/min

	// Wizard steps
	r.Group(func(r chi.Router) {
		r.Use(standardRateLimit)

		r.Get("/customdataset", wizardHandler.Enter)
		r.Post("/customdataset/clear", wizardHandler.Clear)
		r.Post("/customdataset/location", wizardHandler.CountryPayload)
		r.Get("/customdataset/year/{year}", wizardHandler.YearToken)
		r.Post("/customdataset/year/{year}", wizardHandler.YearToken)
		r.Get("/customdataset/{pollutants}", wizardHandler.PollutantStep)
		r.Post("/customdataset/{pollutants}", wizardHandler.PollutantStep)

		r.Get("/year-aurn", wizardHandler.YearStep)
		r.Post("/year-aurn", wizardHandler.YearStep)

		r.Get("/location-aurn", wizardHandler.LocationStep)
		r.Post("/location-aurn", wizardHandler.LocationStep)
		r.Get("/location-aurn/nojs", wizardHandler.LocationStep)
		r.Post("/location-aurn/nojs", wizardHandler.LocationStep)

		r.Get("/download_dataselector", downloadHandler.Gate)
		r.Post("/download_dataselector", downloadHandler.Gate)
		r.Get("/download_dataselectornojs", downloadHandler.Gate)
		r.Post("/download_dataselectornojs", downloadHandler.Gate)
	})

	// Download delivery - expensive upstream work, strict rate limiting
	r.Group(func(r chi.Router) {
		r.Use(expensiveRateLimit)

		r.Get("/download_aurn/{year}", downloadHandler.BlockingDownload)
		r.Get("/download_aurn_status/{jobID}", downloadHandler.JobStatus)
	})

	// Ops endpoints (public)
	r.Route("/v1/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no such resource")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.BadRequest(w, req, "method not allowed for this resource", nil)
	})

	return r
}
