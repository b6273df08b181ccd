// Package wizard implements the selection-accumulation, validation, and
// completeness logic for the custom data export flow.
package wizard

import "strings"

// Pollutant presets selectable by name in the pollutant step.
const (
	PresetCore       = "core"
	PresetCompliance = "compliance"
)

// corePollutants is the fixed ordered expansion of the "core" preset.
var corePollutants = []string{
	"Ozone (O3)",
	"Nitrogen dioxide (NO2)",
	"Sulphur dioxide (SO2)",
	"PM10 particulate matter",
	"PM2.5 particulate matter",
}

// compliancePollutants is the fixed ordered expansion of the "compliance"
// preset. It is a superset of the core preset.
var compliancePollutants = []string{
	"Ozone (O3)",
	"Nitrogen dioxide (NO2)",
	"Sulphur dioxide (SO2)",
	"PM10 particulate matter",
	"PM2.5 particulate matter",
	"Carbon monoxide (CO)",
	"Nitric oxide (NO)",
	"Nitrogen oxides as nitrogen dioxide (NOx)",
}

// pollutantAPICodes maps pollutant display names to the codes the UK-AIR
// data selector API expects. An empty value means the API has no code for
// that pollutant and the display name is sent verbatim.
var pollutantAPICodes = map[string]string{
	"Ozone (O3)":                                "O3",
	"Nitrogen dioxide (NO2)":                    "NO2",
	"Sulphur dioxide (SO2)":                     "SO2",
	"PM10 particulate matter":                   "PM10",
	"PM2.5 particulate matter":                  "PM25",
	"Carbon monoxide (CO)":                      "CO",
	"Nitrogen oxides as nitrogen dioxide (NOx)": "NOXasNO2",
	"Nitric oxide (NO)":                         "",
}

// PresetPollutants expands a preset name to its fixed ordered pollutant
// list. Returns nil for unknown names.
func PresetPollutants(name string) []string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetCore:
		return append([]string(nil), corePollutants...)
	case PresetCompliance:
		return append([]string(nil), compliancePollutants...)
	default:
		return nil
	}
}

// APICode maps a pollutant display name to its API code. The mapping is
// total: names without a code (or unknown names) map to themselves, so
// the result is never empty for a non-empty input.
func APICode(displayName string) string {
	if code, ok := pollutantAPICodes[displayName]; ok && code != "" {
		return code
	}
	return displayName
}

// FormatPollutants maps each display name through APICode and joins the
// results with commas, producing the pollutantName field of remote query
// bodies.
func FormatPollutants(pollutants []string) string {
	codes := make([]string, 0, len(pollutants))
	for _, p := range pollutants {
		codes = append(codes, APICode(p))
	}
	return strings.Join(codes, ",")
}
