package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/api/middleware"
	"github.com/ukair/dataselector/internal/api/models"
	"github.com/ukair/dataselector/internal/api/response"
	"github.com/ukair/dataselector/internal/catalog"
	"github.com/ukair/dataselector/internal/session"
	"github.com/ukair/dataselector/internal/ukair"
	"github.com/ukair/dataselector/internal/view"
	"github.com/ukair/dataselector/internal/wizard"
)

// WizardHandler handles the selection-accumulation wizard steps.
type WizardHandler struct {
	store       session.Store
	accumulator *wizard.Accumulator
	preflight   *wizard.Preflight
	catalog     *catalog.Service
	renderer    view.Renderer
	logger      zerolog.Logger
}

// WizardHandlerConfig holds dependencies for the WizardHandler.
type WizardHandlerConfig struct {
	Store       session.Store
	Accumulator *wizard.Accumulator
	Preflight   *wizard.Preflight
	Catalog     *catalog.Service
	Renderer    view.Renderer
	Logger      zerolog.Logger
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(cfg WizardHandlerConfig) *WizardHandler {
	return &WizardHandler{
		store:       cfg.Store,
		accumulator: cfg.Accumulator,
		preflight:   cfg.Preflight,
		catalog:     cfg.Catalog,
		renderer:    cfg.Renderer,
		logger:      cfg.Logger,
	}
}

// Enter handles GET /customdataset - wizard entry. A fresh visit resets
// the session's selection wholesale.
func (h *WizardHandler) Enter(w http.ResponseWriter, r *http.Request) {
	state := session.NewWizardState()
	if err := saveState(r.Context(), h.store, state); err != nil {
		response.InternalError(w, r, "failed to reset selection")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, view.PollutantView, models.StepView{})
}

// Clear handles POST /customdataset/clear - explicit selection reset.
func (h *WizardHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		response.InternalError(w, r, "failed to clear selection")
		return
	}
	h.renderer.Redirect(w, r, wizard.PathPollutantStep)
}

// PollutantStep handles GET/POST /customdataset/{pollutants}. The path
// segment carries a preset name or a comma-joined pollutant list; a POST
// body may carry the same in any of the accepted shapes.
func (h *WizardHandler) PollutantStep(w http.ResponseWriter, r *http.Request) {
	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	raw := interface{}(chi.URLParam(r, "pollutants"))
	if r.Method == http.MethodPost {
		var form pollutantForm
		if err := decodeBody(r, &form); err != nil {
			response.BadRequest(w, r, "invalid request body", nil)
			return
		}
		if form.Pollutants != nil {
			raw = normalizeRaw(form.Pollutants)
		}
	}

	h.accumulator.MergePollutants(state, raw)

	h.runPreflightIfComplete(w, r, state)
}

// YearToken handles GET/POST /customdataset/year/{year}. The path token
// is accepted verbatim as the time-period display string unless the
// session already holds one.
func (h *WizardHandler) YearToken(w http.ResponseWriter, r *http.Request) {
	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	h.accumulator.MergeTimePeriod(state, chi.URLParam(r, "year"))

	h.runPreflightIfComplete(w, r, state)
}

// CountryPayload handles POST /customdataset/location. It only
// normalizes the posted country payload shape; location persistence
// happens in the dedicated location step.
func (h *WizardHandler) CountryPayload(w http.ResponseWriter, r *http.Request) {
	var form locationForm
	if err := decodeBody(r, &form); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	countries := h.accumulator.NormalizeCountry(normalizeRaw(form.Country))

	h.renderer.Render(w, r, http.StatusOK, view.LocationView, models.StepView{Location: countries})
}

// YearStep handles GET/POST /year-aurn - the dedicated time-period step.
// A POST overwrites the stored period after validating the derived range.
func (h *WizardHandler) YearStep(w http.ResponseWriter, r *http.Request) {
	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	if r.Method == http.MethodGet {
		h.renderer.Render(w, r, http.StatusOK, view.YearView, stepView(state))
		return
	}

	var form yearForm
	if err := decodeBody(r, &form); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	parsed := wizard.ParseYearRange(form.TimePeriod)
	if msg := wizard.ValidateYearRange(parsed); msg != "" {
		h.renderer.Render(w, r, http.StatusOK, view.YearView, models.StepView{Error: msg, TimePeriod: form.TimePeriod})
		return
	}

	h.accumulator.SetTimePeriod(state, form.TimePeriod)

	if err := saveState(r.Context(), h.store, state); err != nil {
		response.InternalError(w, r, "failed to save selection")
		return
	}

	h.renderer.Redirect(w, r, wizard.PathLocationStep)
}

// LocationStep handles GET/POST /location-aurn and /location-aurn/nojs.
// A posted country becomes a Country selection; posted local authority
// names are validated against the catalog and become a LocalAuthority
// selection. The two shapes never coexist.
func (h *WizardHandler) LocationStep(w http.ResponseWriter, r *http.Request) {
	state, err := loadState(r.Context(), h.store)
	if err != nil {
		response.InternalError(w, r, "failed to load selection")
		return
	}

	if r.Method == http.MethodGet {
		h.renderer.Render(w, r, http.StatusOK, view.LocationView, stepView(state))
		return
	}

	var form locationForm
	if err := decodeBody(r, &form); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if countries := h.accumulator.NormalizeCountry(normalizeRaw(form.Country)); len(countries) > 0 {
		h.accumulator.SetCountryLocation(state, countries)
	} else {
		result := h.catalog.Validate(r.Context(), form.LocalAuthorities)
		if result.Message != "" {
			h.renderer.Render(w, r, http.StatusOK, view.LocationView, models.StepView{Error: result.Message})
			return
		}
		h.accumulator.SetLocalAuthorityLocation(state, result.Names, result.IDs)
	}

	h.runPreflightIfComplete(w, r, state)
}

// runPreflightIfComplete persists the state, running the station-count
// preflight first when all three dimensions are present. A preflight
// failure renders the shared error page at the classified status and
// leaves the stored selection unchanged.
func (h *WizardHandler) runPreflightIfComplete(w http.ResponseWriter, r *http.Request, state *session.WizardState) {
	if state.HasPollutants() && state.HasYears() && state.HasLocation() {
		if err := h.preflight.Run(r.Context(), state); err != nil {
			status := ukair.ClassifyStatus(err)
			h.renderer.Render(w, r, status, view.ErrorView, models.ErrorPageView{
				StatusCode: status,
				Message:    ukair.StatusMessage(status),
			})
			return
		}
	}

	if err := saveState(r.Context(), h.store, state); err != nil {
		response.InternalError(w, r, "failed to save selection")
		return
	}

	h.renderer.Render(w, r, http.StatusOK, view.PollutantView, stepView(state))
}

// stepView projects the wizard state into the step view model.
func stepView(state *session.WizardState) models.StepView {
	v := models.StepView{
		Pollutants:          state.Pollutants,
		FormattedPollutants: state.FormattedPollutants,
		TimePeriod:          state.TimePeriod,
		Years:               state.Years,
		StationCount:        state.StationCount,
	}
	if state.Location != nil {
		v.Location = state.Location.Values
	}
	return v
}
