package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukair/dataselector/internal/api"
	"github.com/ukair/dataselector/internal/api/models"
	"github.com/ukair/dataselector/internal/catalog"
	"github.com/ukair/dataselector/internal/export"
	"github.com/ukair/dataselector/internal/session"
	"github.com/ukair/dataselector/internal/ukair"
	"github.com/ukair/dataselector/internal/wizard"
)

// fakeUpstream simulates the UK-AIR data selector endpoints.
type fakeUpstream struct {
	server *httptest.Server

	count       int
	countStatus int
	jobID       string
	statusCalls atomic.Int64

	// statusSequence maps the Nth status call (1-based) to a status.
	// Calls past the end repeat the last entry.
	statusSequence []string
	resultURL      string

	lastQuery ukair.Query
}

func newFakeUpstream() *fakeUpstream {
	u := &fakeUpstream{
		count:          12,
		jobID:          "job-123",
		statusSequence: []string{ukair.StatusCompleted},
		resultURL:      "https://uk-air.defra.gov.uk/exports/job-123.csv",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/count", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&u.lastQuery)
		if u.countStatus != 0 {
			w.WriteHeader(u.countStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"count": u.count})
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&u.lastQuery)
		_ = json.NewEncoder(w).Encode(map[string]string{"jobID": u.jobID})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		n := int(u.statusCalls.Add(1))
		if n > len(u.statusSequence) {
			n = len(u.statusSequence)
		}
		status := u.statusSequence[n-1]

		resp := ukair.JobStatus{Status: status}
		if status == ukair.StatusCompleted {
			resp.ResultURL = u.resultURL
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	u.server = httptest.NewServer(mux)
	return u
}

type testEnv struct {
	upstream *fakeUpstream
	registry *httptest.Server
	server   *httptest.Server
	client   *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	upstream := newFakeUpstream()
	t.Cleanup(upstream.server.Close)

	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"localAuthorityName":"Leeds","localAuthorityID":"350"},
			{"localAuthorityName":"Sheffield","localAuthorityID":"351"}
		]`)
	}))
	t.Cleanup(registry.Close)

	logger := zerolog.New(io.Discard)

	ukairClient := ukair.NewClient(ukair.ClientConfig{
		BaseURL:    upstream.server.URL,
		HTTPClient: http.DefaultClient,
	})

	catalogService := catalog.NewService(catalog.ServiceConfig{
		Fetcher: catalog.NewClient(catalog.ClientConfig{BaseURL: registry.URL}),
		Logger:  logger,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    logger,
		Store:     session.NewMemoryStore(),
		CookieCodec: session.NewCookieCodec(session.CookieCodecConfig{
			SigningKey: "test-secret-key-for-testing-only",
		}),
		Preflight: wizard.NewPreflight(ukairClient, logger),
		Orchestrator: export.NewOrchestrator(export.Config{
			Client:       ukairClient,
			Logger:       logger,
			PollInterval: 5 * time.Millisecond,
			MaxElapsed:   2 * time.Second,
		}),
		Catalog: catalogService,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		upstream: upstream,
		registry: registry,
		server:   server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

func (e *testEnv) postJSON(t *testing.T, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := e.client.Post(e.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSeeOther {
		return nil
	}

	var envelope map[string]interface{}
	err := json.NewDecoder(resp.Body).Decode(&envelope)
	require.NoError(t, err)
	return envelope
}

func viewData(envelope map[string]interface{}) map[string]interface{} {
	data, _ := envelope["data"].(map[string]interface{})
	return data
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.Get(env.server.URL + "/v1/ops/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_SessionCookieIssued(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/customdataset")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "first visit should set the session cookie")
}

func TestRouter_Gate_BlocksIncompleteSelection(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.get(t, "/download_dataselector")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "download", envelope["view"])

	data := viewData(envelope)
	assert.Equal(t, wizard.MsgSelectPollutant, data["message"])
	assert.Equal(t, []interface{}{"/customdataset"}, data["links"])
}

func TestRouter_WizardFlow_CountryExport(t *testing.T) {
	env := newTestEnv(t)

	// Enter the wizard: resets the session selection
	resp, _ := env.get(t, "/customdataset")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Step 1: core pollutant preset via path segment
	resp, envelope := env.get(t, "/customdataset/core")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := viewData(envelope)
	assert.Len(t, data["pollutants"], 5)

	// Step 2: time period
	resp, _ = env.postJSON(t, "/year-aurn", `{"timePeriod":"2023 to 2024"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/location-aurn", resp.Header.Get("Location"))

	// Step 3: location completes the selection, preflight runs
	resp, envelope = env.postJSON(t, "/location-aurn", `{"country":"England"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = viewData(envelope)
	assert.Equal(t, float64(12), data["stationCount"])

	// The preflight reached upstream with the count filter type
	assert.Equal(t, "England", env.upstream.lastQuery.Region)
	assert.Equal(t, ukair.RegionTypeCountry, env.upstream.lastQuery.RegionType)
	assert.Equal(t, "2023,2024", env.upstream.lastQuery.Year)
	assert.Equal(t, ukair.FilterTypeCount, env.upstream.lastQuery.FilterType)
	assert.Equal(t, ukair.DataSourceAURN, env.upstream.lastQuery.DataSource)

	// Gate passes
	resp, envelope = env.get(t, "/download_dataselector")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = viewData(envelope)
	assert.Equal(t, float64(12), data["stationCount"])
	assert.Equal(t, "multiple", data["yearRangeKind"])

	// Blocking download delivers the result URL
	resp, envelope = env.get(t, "/download_aurn/2023%20to%202024")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = viewData(envelope)
	assert.Equal(t, "job-123", data["jobId"])
	assert.Equal(t, env.upstream.resultURL, data["resultUrl"])

	// The export submission switched to the hourly filter type
	assert.Equal(t, ukair.FilterTypeHourly, env.upstream.lastQuery.FilterType)
}

func TestRouter_WizardFlow_LocalAuthorities(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/customdataset/compliance")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.postJSON(t, "/year-aurn", `{"timePeriod":"2024"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, envelope := env.postJSON(t, "/location-aurn", `{"localAuthorities":["Leeds","Sheffield"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := viewData(envelope)
	assert.Equal(t, float64(12), data["stationCount"])

	// Local authority selections query by id
	assert.Equal(t, "350,351", env.upstream.lastQuery.Region)
	assert.Equal(t, ukair.RegionTypeLocalAuthority, env.upstream.lastQuery.RegionType)
	assert.Equal(t, "2024", env.upstream.lastQuery.Year)
}

func TestRouter_WizardFlow_UnknownAuthorityRejected(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.postJSON(t, "/location-aurn", `{"localAuthorities":["Atlantis"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := viewData(envelope)
	assert.NotEmpty(t, data["error"])
}

func TestRouter_YearStep_RejectsWideRange(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.postJSON(t, "/year-aurn", `{"timePeriod":"2010 to 2020"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := viewData(envelope)
	assert.NotEmpty(t, data["error"])
}

func TestRouter_Preflight_UpstreamFailureRendersErrorPage(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.countStatus = http.StatusServiceUnavailable

	resp, _ := env.get(t, "/customdataset/core")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.postJSON(t, "/year-aurn", `{"timePeriod":"2024"}`)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, envelope := env.postJSON(t, "/location-aurn", `{"country":"Wales"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "error", envelope["view"])

	data := viewData(envelope)
	assert.Equal(t, float64(http.StatusServiceUnavailable), data["statusCode"])
	assert.Equal(t, ukair.DefaultStatusMessage, data["message"])
}

func TestRouter_JobStatus_SinglePollPerRequest(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.statusSequence = []string{ukair.StatusPolling, ukair.StatusCompleted}

	// First poll: still running
	resp, envelope := env.get(t, "/download_aurn_status/job-123")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := viewData(envelope)
	assert.Equal(t, ukair.StatusPolling, data["status"])
	assert.Equal(t, int64(1), env.upstream.statusCalls.Load())

	// Second poll: completed
	resp, envelope = env.get(t, "/download_aurn_status/job-123")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = viewData(envelope)
	assert.Equal(t, ukair.StatusCompleted, data["status"])
	assert.Equal(t, env.upstream.resultURL, data["resultUrl"])
	assert.Equal(t, int64(2), env.upstream.statusCalls.Load())

	// Third poll: answered from the session cache, no upstream call
	resp, envelope = env.get(t, "/download_aurn_status/job-123")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = viewData(envelope)
	assert.Equal(t, env.upstream.resultURL, data["resultUrl"])
	assert.Equal(t, int64(2), env.upstream.statusCalls.Load())
}

func TestRouter_Clear_ResetsSelection(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/customdataset/core")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := env.client.Post(env.server.URL+"/customdataset/clear", "application/json", http.NoBody)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// The selection is gone: the gate asks for pollutants again
	_, envelope := env.get(t, "/download_dataselector")
	data := viewData(envelope)
	assert.Equal(t, wizard.MsgSelectPollutant, data["message"])
}
