package wizard

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ukair/dataselector/internal/session"
	"github.com/ukair/dataselector/internal/ukair"
)

// ErrSelectionIncomplete is returned when the preflight is invoked before
// all three selection dimensions are present.
var ErrSelectionIncomplete = errors.New("selection incomplete")

// CountClient is the subset of the UK-AIR client the preflight needs.
type CountClient interface {
	Count(ctx context.Context, query *ukair.Query) (int, error)
}

// Preflight runs the station-count check once a selection is complete and
// records the result on the state.
type Preflight struct {
	client CountClient
	logger zerolog.Logger
}

// NewPreflight creates a new Preflight.
func NewPreflight(client CountClient, logger zerolog.Logger) *Preflight {
	return &Preflight{client: client, logger: logger}
}

// BuildCountQuery assembles the count request body from a complete
// selection. The region shape follows the location kind: Country supplies
// comma-joined country names, LocalAuthority comma-joined LA ids.
func BuildCountQuery(state *session.WizardState) (*ukair.Query, error) {
	if !state.HasPollutants() || !state.HasYears() || !state.HasLocation() {
		return nil, ErrSelectionIncomplete
	}

	formatted := state.FormattedPollutants
	if formatted == "" {
		formatted = FormatPollutants(state.Pollutants)
	}

	query := &ukair.Query{
		PollutantName: formatted,
		DataSource:    ukair.DataSourceAURN,
		Year:          JoinYears(state.Years),
		FilterType:    ukair.FilterTypeCount,
		DownloadType:  ukair.DownloadTypeCSV,
	}

	switch state.Location.Kind {
	case session.LocationLocalAuthority:
		query.Region = strings.Join(state.Location.IDs, ",")
		query.RegionType = ukair.RegionTypeLocalAuthority
	default:
		query.Region = strings.Join(state.Location.Values, ",")
		query.RegionType = ukair.RegionTypeCountry
	}

	return query, nil
}

// Run executes the preflight and stores the count on the state. On
// failure the state is left unchanged so the user can correct and
// resubmit; the error carries the classified upstream status.
func (p *Preflight) Run(ctx context.Context, state *session.WizardState) error {
	query, err := BuildCountQuery(state)
	if err != nil {
		return err
	}

	state.FormattedPollutants = query.PollutantName

	count, err := p.client.Count(ctx, query)
	if err != nil {
		p.logger.Error().
			Err(err).
			Int("status", ukair.ClassifyStatus(err)).
			Str("region_type", query.RegionType).
			Msg("station count preflight failed")
		return err
	}

	state.SetStationCount(count)

	p.logger.Info().
		Int("station_count", count).
		Str("region", query.Region).
		Str("region_type", query.RegionType).
		Str("years", query.Year).
		Msg("station count preflight completed")

	return nil
}
