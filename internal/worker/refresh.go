package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/catalog"
	"github.com/ukair/dataselector/internal/session"
)

// SessionPruner removes wizard sessions past their retention window.
type SessionPruner interface {
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// RefreshJob keeps the local authority catalog warm and prunes stale
// wizard sessions.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	catalog *catalog.Service
	pruner  SessionPruner

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	CatalogRefresh  int64
	CatalogFailures int64
	SessionsPruned  int64
	PruneFailures   int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Catalog *catalog.Service

	// Pruner is optional; nil disables session pruning (the memory
	// store expires with the process and needs none).
	Pruner SessionPruner
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Timeout == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:  config,
		logger:  cfg.Logger,
		catalog: cfg.Catalog,
		pruner:  cfg.Pruner,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	CatalogOK      bool
	PruneOK        bool
	SessionsPruned int64
	Errors         []string
}

// Run executes one refresh pass.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime: startTime,
		CatalogOK: true,
		PruneOK:   true,
	}

	j.logger.Info().
		Bool("refresh_catalog", j.config.RefreshCatalog).
		Bool("prune_sessions", j.config.PruneSessions && j.pruner != nil).
		Msg("starting catalog refresh job")

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.RefreshCatalog && j.catalog != nil {
		if err := j.catalog.Refresh(runCtx); err != nil {
			result.CatalogOK = false
			result.Errors = append(result.Errors, "catalog: "+err.Error())
			j.logger.Error().Err(err).Msg("catalog refresh failed")
		}
	}

	if j.config.PruneSessions && j.pruner != nil {
		pruned, err := j.pruner.DeleteExpired(runCtx, j.config.SessionRetention)
		if err != nil {
			result.PruneOK = false
			result.Errors = append(result.Errors, "prune: "+err.Error())
			j.logger.Error().Err(err).Msg("session prune failed")
		} else {
			result.SessionsPruned = pruned
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Bool("catalog_ok", result.CatalogOK).
		Int64("sessions_pruned", result.SessionsPruned).
		Msg("catalog refresh job completed")

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if result.CatalogOK {
		j.metrics.CatalogRefresh++
	} else {
		j.metrics.CatalogFailures++
	}
	j.metrics.SessionsPruned += result.SessionsPruned
	if !result.PruneOK {
		j.metrics.PruneFailures++
	}
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		CatalogRefresh:  j.metrics.CatalogRefresh,
		CatalogFailures: j.metrics.CatalogFailures,
		SessionsPruned:  j.metrics.SessionsPruned,
		PruneFailures:   j.metrics.PruneFailures,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"catalog_refreshes": m.CatalogRefresh,
		"catalog_failures":  m.CatalogFailures,
		"sessions_pruned":   m.SessionsPruned,
		"prune_failures":    m.PruneFailures,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}

var _ SessionPruner = (*session.PostgresStore)(nil)
