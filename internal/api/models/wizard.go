package models

// PollutantStepRequest is the body of the pollutant step. Pollutants may
// be a preset name, a comma-joined string, or an array; the accumulator
// normalizes all three shapes.
type PollutantStepRequest struct {
	Pollutants interface{} `json:"pollutants"`
}

// YearStepRequest is the body of the time-period step.
type YearStepRequest struct {
	TimePeriod string `json:"timePeriod"`
}

// LocationStepRequest is the body of the location step. Either Country or
// LocalAuthorities is supplied, never both.
type LocationStepRequest struct {
	Country          interface{} `json:"country,omitempty"`
	LocalAuthorities []string    `json:"localAuthorities,omitempty"`
}

// StepView is the data rendered for a wizard step page.
type StepView struct {
	Pollutants          []string `json:"pollutants,omitempty"`
	FormattedPollutants string   `json:"formattedPollutants,omitempty"`
	TimePeriod          string   `json:"timePeriod,omitempty"`
	Years               []int    `json:"years,omitempty"`
	Location            []string `json:"location,omitempty"`
	StationCount        *int     `json:"stationCount,omitempty"`
	Error               string   `json:"error,omitempty"`
}

// DownloadView is the data rendered on the download page once the
// completeness gate passes.
type DownloadView struct {
	StationCount  int    `json:"stationCount"`
	YearRangeKind string `json:"yearRangeKind"`
	Years         []int  `json:"years"`
}

// GateFailureView is the data rendered when the completeness gate blocks
// navigation to the download page.
type GateFailureView struct {
	Message string   `json:"message"`
	Links   []string `json:"links"`
}

// DownloadResultView is the data rendered when a blocking download
// completes.
type DownloadResultView struct {
	JobID     string `json:"jobId"`
	ResultURL string `json:"resultUrl"`
}

// JobStatusView is the response of the single-shot status endpoint.
type JobStatusView struct {
	Status    string        `json:"status"`
	ResultURL string        `json:"resultUrl,omitempty"`
	ViewData  *DownloadView `json:"viewData,omitempty"`
}

// JobStatusError is the single-shot status endpoint's failure shape.
type JobStatusError struct {
	Error      bool   `json:"error"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// ErrorPageView is the data rendered on the shared error page when an
// upstream call fails.
type ErrorPageView struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}
