// Package worker provides background job processing for the data selector.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the catalog refresh job.
type RefreshConfig struct {
	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshCatalog enables the local authority catalog refresh.
	// Default: true
	RefreshCatalog bool

	// PruneSessions enables expired wizard session pruning. Only
	// effective when sessions are held in PostgreSQL.
	// Default: true
	PruneSessions bool

	// SessionRetention is how long an idle wizard session is kept
	// before the prune job removes it.
	// Default: 24 hours
	SessionRetention time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Timeout:          30 * time.Second,
		RefreshCatalog:   true,
		PruneSessions:    true,
		SessionRetention: 24 * time.Hour,
	}
}
