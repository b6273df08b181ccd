// Package session provides per-browser-session wizard state storage.
package session

import "time"

// LocationKind discriminates the geographic scope of a selection.
// Country and LocalAuthority are mutually exclusive.
type LocationKind string

const (
	LocationCountry        LocationKind = "country"
	LocationLocalAuthority LocationKind = "local_authority"
)

// YearRangeKind classifies how many years a time period covers.
type YearRangeKind string

const (
	YearRangeNone     YearRangeKind = "none"
	YearRangeSingle   YearRangeKind = "single"
	YearRangeMultiple YearRangeKind = "multiple"
)

// Location is the geographic scope of a selection.
// IDs is populated only for LocalAuthority selections.
type Location struct {
	Kind   LocationKind `json:"kind"`
	Values []string     `json:"values"`
	IDs    []string     `json:"ids,omitempty"`
}

// DownloadResult caches a completed export so the status endpoint can
// answer repeat polls without re-submitting the job.
type DownloadResult struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	ResultURL string `json:"resultUrl"`
}

// WizardState is the canonical per-session selection record. Each wizard
// step writes only the fields it owns; everything else is left untouched.
type WizardState struct {
	Pollutants          []string      `json:"pollutants,omitempty"`
	FormattedPollutants string        `json:"formattedPollutants,omitempty"`
	TimePeriod          string        `json:"timePeriod,omitempty"`
	Years               []int         `json:"years,omitempty"`
	YearRangeKind       YearRangeKind `json:"yearRangeKind,omitempty"`
	Location            *Location     `json:"location,omitempty"`

	// StationCount is nil until the count preflight has succeeded.
	// Zero is a meaningful terminal value: no stations match.
	StationCount *int `json:"stationCount,omitempty"`

	Download *DownloadResult `json:"download,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewWizardState returns an empty state for a fresh wizard entry.
func NewWizardState() *WizardState {
	return &WizardState{YearRangeKind: YearRangeNone, UpdatedAt: time.Now()}
}

// HasPollutants reports whether the pollutant step has been completed.
func (s *WizardState) HasPollutants() bool {
	return len(s.Pollutants) > 0
}

// HasYears reports whether a usable year list has been derived.
func (s *WizardState) HasYears() bool {
	return len(s.Years) > 0
}

// HasLocation reports whether the location step has been completed.
func (s *WizardState) HasLocation() bool {
	return s.Location != nil && len(s.Location.Values) > 0
}

// SetStationCount records a preflight result. Zero is stored as-is.
func (s *WizardState) SetStationCount(n int) {
	s.StationCount = &n
}

// ClearStationCount invalidates the preflight result. Called whenever any
// of the three selection dimensions changes so the count is never read
// stale relative to the current selection.
func (s *WizardState) ClearStationCount() {
	s.StationCount = nil
}

// ClearDownload drops any cached export result so the download page does
// not auto-trigger a stale download.
func (s *WizardState) ClearDownload() {
	s.Download = nil
}

// Clone returns a deep copy of the state.
func (s *WizardState) Clone() *WizardState {
	cpy := *s
	cpy.Pollutants = append([]string(nil), s.Pollutants...)
	cpy.Years = append([]int(nil), s.Years...)
	if s.Location != nil {
		loc := *s.Location
		loc.Values = append([]string(nil), s.Location.Values...)
		loc.IDs = append([]string(nil), s.Location.IDs...)
		cpy.Location = &loc
	}
	if s.StationCount != nil {
		n := *s.StationCount
		cpy.StationCount = &n
	}
	if s.Download != nil {
		d := *s.Download
		cpy.Download = &d
	}
	return &cpy
}
