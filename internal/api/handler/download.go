package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/api/models"
	"github.com/ukair/dataselector/internal/api/response"
	"github.com/ukair/dataselector/internal/export"
	"github.com/ukair/dataselector/internal/session"
	"github.com/ukair/dataselector/internal/ukair"
	"github.com/ukair/dataselector/internal/view"
	"github.com/ukair/dataselector/internal/wizard"
)

// DownloadHandler handles the completeness gate and the export delivery
// endpoints.
type DownloadHandler struct {
	store        session.Store
	orchestrator *export.Orchestrator
	preflight    *wizard.Preflight
	renderer     view.Renderer
	logger       zerolog.Logger
}

// DownloadHandlerConfig holds dependencies for the DownloadHandler.
type DownloadHandlerConfig struct {
	Store        session.Store
	Orchestrator *export.Orchestrator
	Preflight    *wizard.Preflight
	Renderer     view.Renderer
	Logger       zerolog.Logger
}

// NewDownloadHandler creates a new DownloadHandler.
func NewDownloadHandler(cfg DownloadHandlerConfig) *DownloadHandler {
	return &DownloadHandler{
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		preflight:    cfg.Preflight,
		renderer:     cfg.Renderer,
		logger:       cfg.Logger,
	}
}

// Gate handles GET/POST /download_dataselector and its no-JS twin. The
// completeness gate runs its checks in fixed order and either renders the
// download page or the first applicable correction.
func (h *DownloadHandler) Gate(w http.ResponseWriter, r *http.Request) {
	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	// A step that changed the selection cleared the cached count; rerun
	// the preflight here so the gate judges the current selection.
	if h.preflight != nil && state.StationCount == nil &&
		state.HasPollutants() && state.HasYears() && state.HasLocation() {
		if err := h.preflight.Run(r.Context(), state); err != nil {
			h.renderUpstreamFailure(w, r, err)
			return
		}
	}

	result := wizard.CheckCompleteness(state)
	if !result.OK {
		h.renderer.Render(w, r, http.StatusOK, view.DownloadView, models.GateFailureView{
			Message: result.Message,
			Links:   result.Links,
		})
		return
	}

	// CheckCompleteness cleared any cached export result; persist that.
	if err := saveState(r.Context(), h.store, state); err != nil {
		response.InternalError(w, r, "failed to save selection")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, view.DownloadView, models.DownloadView{
		StationCount:  result.StationCount,
		YearRangeKind: string(result.YearRangeKind),
		Years:         result.Years,
	})
}

// BlockingDownload handles GET /download_aurn/{year} - the synchronous
// delivery path. It submits the export job and blocks the request until
// the job completes, then renders the result URL. The wait is bounded and
// cancelled with the request.
func (h *DownloadHandler) BlockingDownload(w http.ResponseWriter, r *http.Request) {
	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	// Allow the path year to complete a selection arriving out of order.
	if !state.HasYears() {
		if token := chi.URLParam(r, "year"); token != "" {
			parsed := wizard.ParseYearRange(token)
			state.Years = parsed.Years
			state.YearRangeKind = parsed.Kind
			state.TimePeriod = token
		}
	}

	query, err := buildExportQuery(state)
	if err != nil {
		h.renderer.Redirect(w, r, wizard.PathPollutantStep)
		return
	}

	jobID, err := h.orchestrator.Submit(r.Context(), query)
	if err != nil {
		h.renderUpstreamFailure(w, r, err)
		return
	}

	resultURL, err := h.orchestrator.WaitForCompletion(r.Context(), jobID)
	if err != nil {
		h.renderUpstreamFailure(w, r, err)
		return
	}

	state.Download = &session.DownloadResult{
		JobID:     jobID,
		Status:    ukair.StatusCompleted,
		ResultURL: resultURL,
	}
	if err := saveState(r.Context(), h.store, state); err != nil {
		response.InternalError(w, r, "failed to save selection")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, view.DownloadView, models.DownloadResultView{
		JobID:     jobID,
		ResultURL: resultURL,
	})
}

// JobStatus handles GET /download_aurn_status/{jobID} - the client-driven
// single-poll delivery path. Exactly one status check per request; the
// browser owns the retry cadence. A completed result is cached in the
// session so repeat polls return the same URL without re-submitting.
func (h *DownloadHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		response.BadRequest(w, r, "jobID is required", nil)
		return
	}

	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	viewData := downloadViewData(state)

	// Idempotency: a cached completed result answers without polling.
	if state.Download != nil && state.Download.JobID == jobID && state.Download.ResultURL != "" {
		h.renderer.Render(w, r, http.StatusOK, view.StatusView, models.JobStatusView{
			Status:    state.Download.Status,
			ResultURL: state.Download.ResultURL,
			ViewData:  viewData,
		})
		return
	}

	result, err := h.orchestrator.CheckOnce(r.Context(), jobID)
	if err != nil {
		status := ukair.ClassifyStatus(err)
		response.JSON(w, r, status, models.JobStatusError{
			Error:      true,
			StatusCode: status,
			Message:    "Status check failed",
		})
		return
	}

	if result.Completed {
		state.Download = &session.DownloadResult{
			JobID:     result.JobID,
			Status:    result.Status,
			ResultURL: result.ResultURL,
		}
		if err := saveState(r.Context(), h.store, state); err != nil {
			h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to cache download result")
		}
	}

	h.renderer.Render(w, r, http.StatusOK, view.StatusView, models.JobStatusView{
		Status:    result.Status,
		ResultURL: result.ResultURL,
		ViewData:  viewData,
	})
}

// renderUpstreamFailure renders the shared error page for a classified
// upstream failure.
func (h *DownloadHandler) renderUpstreamFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := ukair.ClassifyStatus(err)
	h.renderer.Render(w, r, status, view.ErrorView, models.ErrorPageView{
		StatusCode: status,
		Message:    ukair.StatusMessage(status),
	})
}

// buildExportQuery assembles the export submission body. It shares the
// count query's shape but uses the hourly filter type.
func buildExportQuery(state *session.WizardState) (*ukair.Query, error) {
	query, err := wizard.BuildCountQuery(state)
	if err != nil {
		return nil, err
	}
	query.FilterType = ukair.FilterTypeHourly
	return query, nil
}

// downloadViewData projects the prior wizard context cached for
// re-rendering the download page.
func downloadViewData(state *session.WizardState) *models.DownloadView {
	if state.StationCount == nil {
		return nil
	}
	return &models.DownloadView{
		StationCount:  *state.StationCount,
		YearRangeKind: string(state.YearRangeKind),
		Years:         state.Years,
	}
}
