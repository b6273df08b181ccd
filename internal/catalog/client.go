// Package catalog provides the Local Authority reference catalog used to
// validate free-text location input.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ukair/dataselector/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Local Authority registry.
	DefaultBaseURL = "https://uk-air.defra.gov.uk/registry"

	// authoritiesPath lists all local authorities.
	authoritiesPath = "/localauthorities"
)

// DefaultTimeout bounds the registry fetch.
const DefaultTimeout = 30 * time.Second

// ClientConfig holds configuration for the registry client.
type ClientConfig struct {
	// BaseURL is the registry base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	HTTPClient HTTPDoer

	// Timeout for registry requests (default: 30s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches the Local Authority list from the upstream registry.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new registry client.
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
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    "la-registry",
			Timeout: timeout,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// authorityData is a registry entry.
type authorityData struct {
	Name string `json:"localAuthorityName"`
	ID   string `json:"localAuthorityID"`
}

// FetchAuthorities retrieves the name-to-id map of local authorities.
// A malformed payload degrades to an empty map rather than an error; the
// caller treats an empty catalog as "no valid local authorities".
func (c *Client) FetchAuthorities(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+authoritiesPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch local authorities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from registry", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}

	var entries []authorityData
	if err := json.Unmarshal(body, &entries); err != nil {
		// Some registry deployments answer with an object keyed by name.
		var byName map[string]string
		if err := json.Unmarshal(body, &byName); err != nil {
			// Neither array nor object: degrade to an empty catalog.
			return map[string]string{}, nil
		}
		return byName, nil
	}

	authorities := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Name != "" && e.ID != "" {
			authorities[e.Name] = e.ID
		}
	}

	return authorities, nil
}
