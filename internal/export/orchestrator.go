// Package export orchestrates asynchronous UK-AIR export jobs: submission
// and polling to a terminal state.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/ukair"
)

// Polling defaults. The cadence is fixed rather than exponential: the
// upstream job runner makes progress at its own pace and hammering the
// status endpoint faster buys nothing.
const (
	DefaultPollInterval = 10 * time.Second

	// DefaultMaxElapsed bounds the blocking wait. Jobs still running
	// after this long are abandoned by the waiting request; the client
	// can fall back to the single-poll endpoint.
	DefaultMaxElapsed = 15 * time.Minute
)

// Orchestrator errors.
var (
	ErrJobFailed  = errors.New("export job failed")
	ErrJobTimeout = errors.New("export job did not complete in time")
	ErrEmptyJobID = errors.New("jobID is required")
)

// JobClient is the subset of the UK-AIR client the orchestrator needs.
type JobClient interface {
	Submit(ctx context.Context, query *ukair.Query) (string, error)
	Status(ctx context.Context, jobID string) (*ukair.JobStatus, error)
}

// Config holds configuration for the orchestrator.
type Config struct {
	Client       JobClient
	Logger       zerolog.Logger
	PollInterval time.Duration
	MaxElapsed   time.Duration
}

// Orchestrator submits export jobs and observes them to completion.
type Orchestrator struct {
	client       JobClient
	logger       zerolog.Logger
	pollInterval time.Duration
	maxElapsed   time.Duration
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}
	maxElapsed := cfg.MaxElapsed
	if maxElapsed == 0 {
		maxElapsed = DefaultMaxElapsed
	}

	return &Orchestrator{
		client:       cfg.Client,
		logger:       cfg.Logger,
		pollInterval: pollInterval,
		maxElapsed:   maxElapsed,
	}
}

// Submit submits an export job for the given query and returns its ID.
func (o *Orchestrator) Submit(ctx context.Context, query *ukair.Query) (string, error) {
	jobID, err := o.client.Submit(ctx, query)
	if err != nil {
		return "", err
	}

	o.logger.Info().
		Str("job_id", jobID).
		Str("region_type", query.RegionType).
		Msg("export job submitted")

	return jobID, nil
}

// WaitForCompletion polls a job on a fixed cadence until it completes and
// returns the result URL. This is the blocking variant: it suspends the
// caller for the full job lifetime. The wait is bounded by the configured
// max elapsed time and by ctx, so a cancelled request stops the loop.
func (o *Orchestrator) WaitForCompletion(ctx context.Context, jobID string) (string, error) {
	if jobID == "" {
		return "", ErrEmptyJobID
	}

	bo := backoff.WithContext(
		backoff.NewConstantBackOff(o.pollInterval),
		ctx,
	)

	deadline := time.Now().Add(o.maxElapsed)
	var resultURL string

	operation := func() error {
		if time.Now().After(deadline) {
			return backoff.Permanent(ErrJobTimeout)
		}

		status, err := o.client.Status(ctx, jobID)
		if err != nil {
			// A single poll failure aborts the wait.
			return backoff.Permanent(err)
		}

		switch status.Status {
		case ukair.StatusCompleted:
			resultURL = status.ResultURL
			return nil
		case ukair.StatusFailed:
			return backoff.Permanent(fmt.Errorf("%w: job %s", ErrJobFailed, jobID))
		default:
			return fmt.Errorf("job %s still %s", jobID, status.Status)
		}
	}

	if err := backoff.Retry(operation, bo); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("export job wait aborted")
		return "", err
	}

	o.logger.Info().
		Str("job_id", jobID).
		Str("result_url", resultURL).
		Msg("export job completed")

	return resultURL, nil
}

// SubmitAndWait submits a job and blocks until it completes.
func (o *Orchestrator) SubmitAndWait(ctx context.Context, query *ukair.Query) (string, error) {
	jobID, err := o.Submit(ctx, query)
	if err != nil {
		return "", err
	}
	return o.WaitForCompletion(ctx, jobID)
}

// CheckResult is the outcome of a single-shot status check.
type CheckResult struct {
	JobID     string
	Status    string
	ResultURL string

	// Completed reports whether the result should be cached: the job is
	// Completed and carries a non-empty result URL.
	Completed bool
}

// CheckOnce performs exactly one status check and returns immediately.
// This is the client-driven variant: the caller owns the retry cadence,
// and cancellation is simply "stop requesting". Any other status than a
// completed-with-URL one is returned as-is, uncached.
func (o *Orchestrator) CheckOnce(ctx context.Context, jobID string) (*CheckResult, error) {
	if jobID == "" {
		return nil, ErrEmptyJobID
	}

	status, err := o.client.Status(ctx, jobID)
	if err != nil {
		o.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Int("status", ukair.ClassifyStatus(err)).
			Msg("export job status check failed")
		return nil, err
	}

	return &CheckResult{
		JobID:     jobID,
		Status:    status.Status,
		ResultURL: status.ResultURL,
		Completed: status.Status == ukair.StatusCompleted && status.ResultURL != "",
	}, nil
}
