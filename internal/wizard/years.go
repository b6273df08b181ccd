package wizard

import (
	"regexp"
	"strconv"
	"time"

	"github.com/ukair/dataselector/internal/session"
)

// Year validation bounds. AURN records begin in 1973.
const (
	MinYear = 1973

	// MaxRangeYears is the largest inclusive span a range request may
	// cover.
	MaxRangeYears = 5
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// YearRange is the parsed form of a time-period display string.
type YearRange struct {
	Years []int
	Kind  session.YearRangeKind
}

// ParseYearRange extracts the year list from a free-form time-period
// display string such as "1 January 2022 to 31 December 2024".
//
// Exactly two 4-digit matches yield the inclusive range between them,
// kind Multiple. Exactly one match yields that single year, kind Single.
// Zero or more than two matches yield an empty list, kind None; that is
// "cannot compute", not an error, and downstream preflight is skipped.
func ParseYearRange(period string) YearRange {
	matches := yearPattern.FindAllString(period, -1)

	switch len(matches) {
	case 1:
		year, _ := strconv.Atoi(matches[0])
		return YearRange{Years: []int{year}, Kind: session.YearRangeSingle}
	case 2:
		from, _ := strconv.Atoi(matches[0])
		to, _ := strconv.Atoi(matches[1])
		if to < from {
			from, to = to, from
		}
		years := make([]int, 0, to-from+1)
		for y := from; y <= to; y++ {
			years = append(years, y)
		}
		return YearRange{Years: years, Kind: session.YearRangeMultiple}
	default:
		return YearRange{Kind: session.YearRangeNone}
	}
}

// JoinYears renders a year list as the comma-joined string remote query
// bodies expect.
func JoinYears(years []int) string {
	out := ""
	for i, y := range years {
		if i > 0 {
			out += ","
		}
		out += strconv.Itoa(y)
	}
	return out
}

// ValidateYearRange checks a parsed range against the allowed bounds.
// Returns a user-correctable message, or "" when the range is valid.
func ValidateYearRange(r YearRange) string {
	if r.Kind == session.YearRangeNone {
		return ""
	}

	currentYear := time.Now().Year()
	for _, y := range r.Years {
		if y < MinYear || y > currentYear {
			return "Enter a year between " + strconv.Itoa(MinYear) + " and " + strconv.Itoa(currentYear)
		}
	}

	if len(r.Years) > MaxRangeYears {
		return "Select a date range of " + strconv.Itoa(MaxRangeYears) + " years or fewer"
	}

	return ""
}
