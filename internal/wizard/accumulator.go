package wizard

import (
	"strings"

	"github.com/ukair/dataselector/internal/session"
)

// Accumulator merges raw wizard-step fragments into the session's
// WizardState. Each merge touches only the fields its step owns and is
// idempotent on re-entry: a value already in the session wins over a new
// fragment for the same field.
type Accumulator struct{}

// NewAccumulator creates a new Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// MergePollutants merges a raw pollutant fragment into the state.
//
// Precedence: an existing non-empty pollutant list in the session wins.
// Otherwise a preset name expands to its fixed list; a slice containing
// exactly one element that itself contains commas is exploded and trimmed
// (an upstream client occasionally sends a joined string inside an
// array); any other slice is accepted as-is; a bare string is split on
// "," and trimmed. The stored list is never a raw unsplit comma string.
func (a *Accumulator) MergePollutants(state *session.WizardState, raw interface{}) {
	if state.HasPollutants() {
		return
	}

	var pollutants []string

	switch v := raw.(type) {
	case []string:
		if len(v) == 1 && strings.Contains(v[0], ",") {
			pollutants = splitAndTrim(v[0])
		} else {
			pollutants = v
		}
	case string:
		if preset := PresetPollutants(v); preset != nil {
			pollutants = preset
		} else {
			pollutants = splitAndTrim(v)
		}
	}

	if len(pollutants) == 0 {
		return
	}

	state.Pollutants = pollutants
	state.FormattedPollutants = FormatPollutants(pollutants)
	state.ClearStationCount()
}

// MergeTimePeriod merges a path-encoded time-period token into the state.
//
// An explicit period already in the session wins; otherwise the token is
// accepted verbatim as the display string and the year list is derived
// from it. An unparseable token leaves the year list empty without error.
func (a *Accumulator) MergeTimePeriod(state *session.WizardState, token string) {
	if state.TimePeriod != "" {
		return
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	state.TimePeriod = token
	a.reparseYears(state)
}

// SetTimePeriod overwrites the time period from the dedicated year step
// and re-derives the year list.
func (a *Accumulator) SetTimePeriod(state *session.WizardState, period string) {
	state.TimePeriod = strings.TrimSpace(period)
	a.reparseYears(state)
}

func (a *Accumulator) reparseYears(state *session.WizardState) {
	r := ParseYearRange(state.TimePeriod)
	state.Years = r.Years
	state.YearRangeKind = r.Kind
	state.ClearStationCount()
}

// NormalizeCountry wraps a bare posted country value into a one-element
// list. It does not persist anything: actual location persistence happens
// in the dedicated location step.
func (a *Accumulator) NormalizeCountry(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	default:
		return nil
	}
}

// SetCountryLocation overwrites the location with a Country selection.
func (a *Accumulator) SetCountryLocation(state *session.WizardState, countries []string) {
	state.Location = &session.Location{
		Kind:   session.LocationCountry,
		Values: countries,
	}
	state.ClearStationCount()
}

// SetLocalAuthorityLocation overwrites the location with a LocalAuthority
// selection. Names and ids are parallel slices.
func (a *Accumulator) SetLocalAuthorityLocation(state *session.WizardState, names, ids []string) {
	state.Location = &session.Location{
		Kind:   session.LocationLocalAuthority,
		Values: names,
		IDs:    ids,
	}
	state.ClearStationCount()
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
