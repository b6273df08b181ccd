package ukair

// Data selector constants used in remote query bodies.
const (
	// DataSourceAURN identifies the Automatic Urban and Rural Network.
	DataSourceAURN = "AURN"

	// FilterTypeCount is the dataselectorfiltertype for the station-count
	// preflight.
	FilterTypeCount = "dataSelectorCount"

	// FilterTypeHourly is the dataselectorfiltertype for hourly export
	// submission. The count and export operations use different filter
	// types on purpose: the upstream API discriminates the operation by
	// this field.
	FilterTypeHourly = "dataSelectorHourly"

	// DownloadTypeCSV is the dataselectordownloadtype for CSV exports.
	DownloadTypeCSV = "csv"
)

// Region type discriminators accepted by the upstream API.
const (
	RegionTypeCountry        = "Country"
	RegionTypeLocalAuthority = "LocalAuthority"
)

// Job status values reported by the status endpoint.
const (
	StatusSubmitted = "Submitted"
	StatusPolling   = "Polling"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

// Query is the body of both the count preflight and the export
// submission. Region is a comma-joined list of country names or local
// authority ids depending on RegionType.
type Query struct {
	PollutantName string `json:"pollutantName"`
	DataSource    string `json:"dataSource"`
	Region        string `json:"Region"`
	RegionType    string `json:"regiontype"`
	Year          string `json:"Year"`
	FilterType    string `json:"dataselectorfiltertype"`
	DownloadType  string `json:"dataselectordownloadtype"`
}

// statusRequest is the body of a job status poll.
type statusRequest struct {
	JobID string `json:"jobID"`
}

// JobStatus is the status endpoint's response.
type JobStatus struct {
	Status    string `json:"status"`
	ResultURL string `json:"resultUrl"`
}

// submitResponse is the export submission response.
type submitResponse struct {
	JobID string `json:"jobID"`
}

// countResponse is the count endpoint's response body.
type countResponse struct {
	Count int `json:"count"`
}
