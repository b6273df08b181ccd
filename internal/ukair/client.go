// Package ukair provides a client for the UK-AIR data selector API: the
// station-count preflight, export-job submission, and job status polling.
package ukair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ukair/dataselector/internal/provider/resilience"
	"github.com/ukair/dataselector/internal/telemetry"
)

const (
	// DefaultBaseURL is the base URL for the UK-AIR data selector API.
	DefaultBaseURL = "https://uk-air.defra.gov.uk/dataselector"

	// ProviderName identifies this provider.
	ProviderName = "ukair"

	// countPath is the station-count preflight endpoint.
	countPath = "/count"

	// submitPath is the export-job submission endpoint.
	submitPath = "/submit"

	// statusPath is the export-job status endpoint.
	statusPath = "/status"
)

// DefaultTimeout bounds each individual API call. The count preflight in
// particular is slow for wide selections.
const DefaultTimeout = 50 * time.Second

// ClientConfig holds configuration for the UK-AIR client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 50s).
	Timeout time.Duration

	// Metrics records call durations and outcomes. Optional.
	Metrics *telemetry.UpstreamMetrics
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a UK-AIR data selector API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	metrics    *telemetry.UpstreamMetrics
}

// NewClient creates a new UK-AIR client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		// A single upstream failure terminates the current operation:
		// retries stay off, only the circuit breaker is active.
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName,
			Timeout: timeout,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}
}

// Count runs the station-count preflight for a complete selection.
// A zero count is a legitimate result meaning no stations match.
func (c *Client) Count(ctx context.Context, query *Query) (int, error) {
	body, err := c.post(ctx, countPath, query, "count")
	if err != nil {
		return 0, err
	}

	// The endpoint answers with either a bare number or {"count": n}.
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return 0, &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: "count", Err: fmt.Errorf("empty response body")}
	}
	if n, convErr := strconv.Atoi(trimmed); convErr == nil {
		return n, nil
	}

	var result countResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: "count", Err: fmt.Errorf("decode count response: %w", err)}
	}
	return result.Count, nil
}

// Submit submits an export job and returns its opaque job ID.
func (c *Client) Submit(ctx context.Context, query *Query) (string, error) {
	body, err := c.post(ctx, submitPath, query, "submit")
	if err != nil {
		return "", err
	}

	var result submitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: "submit", Err: fmt.Errorf("decode submit response: %w", err)}
	}
	if result.JobID == "" {
		return "", &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: "submit", Err: fmt.Errorf("submit response missing jobID")}
	}
	return result.JobID, nil
}

// Status performs a single status check for a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	body, err := c.post(ctx, statusPath, statusRequest{JobID: jobID}, "status")
	if err != nil {
		return nil, err
	}

	var result JobStatus
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: "status", Err: fmt.Errorf("decode status response: %w", err)}
	}
	return &result, nil
}

// post sends a JSON body and returns the raw response body. All HTTP
// statuses are read without panicking; non-2xx statuses become
// UpstreamErrors carrying the upstream status.
func (c *Client) post(ctx context.Context, path string, payload interface{}, op string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(ProviderName, op, time.Since(start), err)
	}()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Kind: KindNoResponse, StatusCode: http.StatusInternalServerError, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Kind:       KindResponse,
			StatusCode: resp.StatusCode,
			Op:         op,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return body, nil
}
