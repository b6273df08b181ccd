package export_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukair/dataselector/internal/export"
	"github.com/ukair/dataselector/internal/ukair"
)

// stubJobClient scripts the upstream submit/status responses.
type stubJobClient struct {
	mu sync.Mutex

	jobID     string
	submitErr error

	// statuses is consumed one per Status call; the last entry repeats.
	statuses  []ukair.JobStatus
	statusErr error

	submitCalls int
	statusCalls int
	lastQuery   *ukair.Query
}

func (c *stubJobClient) Submit(_ context.Context, query *ukair.Query) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitCalls++
	c.lastQuery = query
	return c.jobID, c.submitErr
}

func (c *stubJobClient) Status(_ context.Context, _ string) (*ukair.JobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	if c.statusErr != nil {
		return nil, c.statusErr
	}

	idx := c.statusCalls - 1
	if idx >= len(c.statuses) {
		idx = len(c.statuses) - 1
	}
	status := c.statuses[idx]
	return &status, nil
}

func newTestOrchestrator(client *stubJobClient) *export.Orchestrator {
	return export.NewOrchestrator(export.Config{
		Client:       client,
		Logger:       zerolog.Nop(),
		PollInterval: time.Millisecond,
		MaxElapsed:   time.Second,
	})
}

func exportQuery() *ukair.Query {
	return &ukair.Query{
		PollutantName: "O3",
		DataSource:    ukair.DataSourceAURN,
		Region:        "England",
		RegionType:    ukair.RegionTypeCountry,
		Year:          "2024",
		FilterType:    ukair.FilterTypeHourly,
		DownloadType:  ukair.DownloadTypeCSV,
	}
}

func TestWaitForCompletion_PollsUntilCompleted(t *testing.T) {
	client := &stubJobClient{
		jobID: "job-1",
		statuses: []ukair.JobStatus{
			{Status: ukair.StatusSubmitted},
			{Status: ukair.StatusPolling},
			{Status: ukair.StatusCompleted, ResultURL: "https://example.com/export.csv"},
		},
	}

	url, err := newTestOrchestrator(client).WaitForCompletion(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/export.csv", url)
	assert.Equal(t, 3, client.statusCalls)
}

func TestWaitForCompletion_FailedJobAbortsImmediately(t *testing.T) {
	client := &stubJobClient{
		statuses: []ukair.JobStatus{{Status: ukair.StatusFailed}},
	}

	_, err := newTestOrchestrator(client).WaitForCompletion(context.Background(), "job-1")
	assert.ErrorIs(t, err, export.ErrJobFailed)
	assert.Equal(t, 1, client.statusCalls)
}

func TestWaitForCompletion_PollErrorAbortsWait(t *testing.T) {
	client := &stubJobClient{
		statusErr: &ukair.UpstreamError{Kind: ukair.KindResponse, StatusCode: 503, Op: "status"},
	}

	_, err := newTestOrchestrator(client).WaitForCompletion(context.Background(), "job-1")
	require.Error(t, err)
	assert.Equal(t, 1, client.statusCalls, "a single poll failure must not be retried")
}

func TestWaitForCompletion_BoundedByMaxElapsed(t *testing.T) {
	client := &stubJobClient{
		statuses: []ukair.JobStatus{{Status: ukair.StatusPolling}},
	}

	orchestrator := export.NewOrchestrator(export.Config{
		Client:       client,
		Logger:       zerolog.Nop(),
		PollInterval: time.Millisecond,
		MaxElapsed:   20 * time.Millisecond,
	})

	_, err := orchestrator.WaitForCompletion(context.Background(), "job-1")
	assert.ErrorIs(t, err, export.ErrJobTimeout)
}

func TestWaitForCompletion_CancelledContextStopsPolling(t *testing.T) {
	client := &stubJobClient{
		statuses: []ukair.JobStatus{{Status: ukair.StatusPolling}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	orchestrator := export.NewOrchestrator(export.Config{
		Client:       client,
		Logger:       zerolog.Nop(),
		PollInterval: time.Millisecond,
		MaxElapsed:   time.Minute,
	})

	start := time.Now()
	_, err := orchestrator.WaitForCompletion(ctx, "job-1")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForCompletion_EmptyJobID(t *testing.T) {
	client := &stubJobClient{}

	_, err := newTestOrchestrator(client).WaitForCompletion(context.Background(), "")
	assert.ErrorIs(t, err, export.ErrEmptyJobID)
	assert.Zero(t, client.statusCalls)
}

func TestSubmitAndWait(t *testing.T) {
	client := &stubJobClient{
		jobID: "job-9",
		statuses: []ukair.JobStatus{
			{Status: ukair.StatusPolling},
			{Status: ukair.StatusCompleted, ResultURL: "https://example.com/job-9.csv"},
		},
	}

	url, err := newTestOrchestrator(client).SubmitAndWait(context.Background(), exportQuery())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/job-9.csv", url)
	assert.Equal(t, 1, client.submitCalls)
	assert.Equal(t, ukair.FilterTypeHourly, client.lastQuery.FilterType)
}

func TestSubmitAndWait_SubmitFailureSkipsPolling(t *testing.T) {
	client := &stubJobClient{
		submitErr: errors.New("submit refused"),
	}

	_, err := newTestOrchestrator(client).SubmitAndWait(context.Background(), exportQuery())
	require.Error(t, err)
	assert.Zero(t, client.statusCalls)
}

func TestCheckOnce_SinglePoll(t *testing.T) {
	client := &stubJobClient{
		statuses: []ukair.JobStatus{{Status: ukair.StatusPolling}},
	}

	result, err := newTestOrchestrator(client).CheckOnce(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, ukair.StatusPolling, result.Status)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, client.statusCalls, "exactly one upstream poll per call")
}

func TestCheckOnce_CompletedWithURL(t *testing.T) {
	client := &stubJobClient{
		statuses: []ukair.JobStatus{
			{Status: ukair.StatusCompleted, ResultURL: "https://example.com/export.csv"},
		},
	}

	result, err := newTestOrchestrator(client).CheckOnce(context.Background(), "job-1")
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, "https://example.com/export.csv", result.ResultURL)
}

func TestCheckOnce_CompletedWithoutURLNotCacheable(t *testing.T) {
	client := &stubJobClient{
		statuses: []ukair.JobStatus{{Status: ukair.StatusCompleted}},
	}

	result, err := newTestOrchestrator(client).CheckOnce(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, result.Completed)
}

func TestCheckOnce_EmptyJobID(t *testing.T) {
	client := &stubJobClient{}

	_, err := newTestOrchestrator(client).CheckOnce(context.Background(), "")
	assert.ErrorIs(t, err, export.ErrEmptyJobID)
}
