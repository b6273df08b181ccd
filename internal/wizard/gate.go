package wizard

import "github.com/ukair/dataselector/internal/session"

// Correction messages returned by the completeness gate.
const (
	MsgSelectPollutant = "Select a pollutant to continue"
	MsgSelectYear      = "Select a year to continue"
	MsgSelectLocation  = "Select a location to continue"
	MsgNoStations      = "There are no stations available based on your selection. Change the year or location"
)

// Wizard step paths used as correction links.
const (
	PathPollutantStep = "/customdataset"
	PathYearStep      = "/year-aurn"
	PathLocationStep  = "/location-aurn"
)

// GateResult is the completeness gate's verdict. When OK is false,
// Message carries the correction to show and Links the steps the user
// can go back to.
type GateResult struct {
	OK      bool
	Message string
	Links   []string

	// Populated only on success.
	StationCount  int
	YearRangeKind session.YearRangeKind
	Years         []int
}

// CheckCompleteness decides whether the user may advance to the download
// step. Checks run in fixed order and short-circuit on the first failure:
// pollutants, then year, then location, then station count. A station
// count of zero (or one never computed) fails with the dual change-year /
// change-location links.
//
// On success the cached export result is cleared so the download page
// cannot auto-trigger a stale download.
func CheckCompleteness(state *session.WizardState) GateResult {
	if !state.HasPollutants() {
		return GateResult{Message: MsgSelectPollutant, Links: []string{PathPollutantStep}}
	}

	if !state.HasYears() {
		return GateResult{Message: MsgSelectYear, Links: []string{PathYearStep}}
	}

	if !state.HasLocation() {
		return GateResult{Message: MsgSelectLocation, Links: []string{PathLocationStep}}
	}

	if state.StationCount == nil || *state.StationCount == 0 {
		return GateResult{Message: MsgNoStations, Links: []string{PathYearStep, PathLocationStep}}
	}

	state.ClearDownload()

	return GateResult{
		OK:            true,
		StationCount:  *state.StationCount,
		YearRangeKind: state.YearRangeKind,
		Years:         append([]int(nil), state.Years...),
	}
}
