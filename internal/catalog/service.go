package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/telemetry"
)

// MaxSelections is the largest number of local authorities a single
// selection may contain.
const MaxSelections = 10

// sourceName labels the registry in upstream metrics.
const sourceName = "la-registry"

// Fetcher retrieves the authority map from the upstream registry.
type Fetcher interface {
	FetchAuthorities(ctx context.Context) (map[string]string, error)
}

// ServiceConfig holds configuration for the catalog service.
type ServiceConfig struct {
	Fetcher  Fetcher
	Logger   zerolog.Logger
	CacheTTL time.Duration

	// Metrics records cache hit rates. Optional.
	Metrics *telemetry.UpstreamMetrics
}

// Service provides the Local Authority catalog with in-memory caching.
// The catalog is read-only reference data, not user state.
type Service struct {
	fetcher  Fetcher
	logger   zerolog.Logger
	cacheTTL time.Duration
	metrics  *telemetry.UpstreamMetrics

	mu          sync.RWMutex
	cache       map[string]string
	cacheExpiry time.Time
}

// NewService creates a new catalog service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	return &Service{
		fetcher:  cfg.Fetcher,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		metrics:  cfg.Metrics,
	}
}

// Authorities returns the name-to-id map, refreshing the cache when
// expired. A fetch failure falls back to the previous cache if one
// exists, otherwise to an empty catalog.
func (s *Service) Authorities(ctx context.Context) map[string]string {
	s.mu.RLock()
	if s.cache != nil && time.Now().Before(s.cacheExpiry) {
		cached := s.cache
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(sourceName)
		return cached
	}
	s.mu.RUnlock()

	s.metrics.RecordCacheMiss(sourceName)
	authorities, err := s.fetcher.FetchAuthorities(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("local authority catalog fetch failed, using stale cache")

		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.cache != nil {
			return s.cache
		}
		return map[string]string{}
	}

	s.mu.Lock()
	s.cache = authorities
	s.cacheExpiry = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	s.logger.Debug().Int("authorities", len(authorities)).Msg("local authority catalog refreshed")

	return authorities
}

// Refresh forces a cache refresh. Used by the worker.
func (s *Service) Refresh(ctx context.Context) error {
	authorities, err := s.fetcher.FetchAuthorities(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = authorities
	s.cacheExpiry = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	s.logger.Info().Int("authorities", len(authorities)).Msg("local authority catalog refreshed")
	return nil
}

// ValidationResult is the outcome of validating posted LA names.
type ValidationResult struct {
	Names []string
	IDs   []string

	// Message is a user-correctable error, empty when valid.
	Message string
}

// Validate checks free-text local authority names against the catalog.
// Unknown names, duplicates, and oversized selections are
// user-correctable failures, never fatal.
func (s *Service) Validate(ctx context.Context, names []string) ValidationResult {
	if len(names) > MaxSelections {
		return ValidationResult{Message: "Select 10 or fewer local authorities"}
	}

	authorities := s.Authorities(ctx)

	seen := make(map[string]bool, len(names))
	result := ValidationResult{
		Names: make([]string, 0, len(names)),
		IDs:   make([]string, 0, len(names)),
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if seen[key] {
			return ValidationResult{Message: "Remove duplicate local authority: " + name}
		}
		seen[key] = true

		id, ok := s.lookup(authorities, name)
		if !ok {
			return ValidationResult{Message: "Enter a valid local authority: " + name}
		}

		result.Names = append(result.Names, name)
		result.IDs = append(result.IDs, id)
	}

	if len(result.Names) == 0 {
		return ValidationResult{Message: "Enter a local authority"}
	}

	return result
}

// lookup finds an authority id case-insensitively.
func (s *Service) lookup(authorities map[string]string, name string) (string, bool) {
	if id, ok := authorities[name]; ok {
		return id, true
	}
	for n, id := range authorities {
		if strings.EqualFold(n, name) {
			return id, true
		}
	}
	return "", false
}
