package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sartorproj/macrocast/fred"
	"github.com/sartorproj/macrocast/timeseries"
)

// Source supplies raw observations for a series identifier.
type Source interface {
	Fetch(ctx context.Context, id string, freq timeseries.Frequency) (*timeseries.Series, error)
}

// FREDSource fetches observations from the FRED API within a fixed date
// range.
type FREDSource struct {
	Client *fred.Client
	Start  time.Time
	End    time.Time
}

func (s *FREDSource) Fetch(ctx context.Context, id string, freq timeseries.Frequency) (*timeseries.Series, error) {
	return s.Client.FetchSeries(ctx, fred.SeriesRequest{
		SeriesID: id,
		Start:    s.Start,
		End:      s.End,
	}, freq)
}

// CSVSource reads observations from <dir>/<id>.csv files with date and
// value columns.
type CSVSource struct {
	Dir   string
	Start time.Time
	End   time.Time
}

func (s *CSVSource) Fetch(ctx context.Context, id string, freq timeseries.Frequency) (*timeseries.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, id+".csv")
	obs, err := timeseries.LoadCSV(path, nil)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no csv file for %s: %w", id, fred.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	obs = s.clip(obs)
	if len(obs) == 0 {
		return nil, fmt.Errorf("%s has no observations in range: %w", id, fred.ErrDataUnavailable)
	}
	return timeseries.FromObservations(id, freq, obs)
}

func (s *CSVSource) clip(obs []timeseries.Observation) []timeseries.Observation {
	if s.Start.IsZero() && s.End.IsZero() {
		return obs
	}
	out := obs[:0:0]
	for _, o := range obs {
		if !s.Start.IsZero() && o.Time.Before(s.Start) {
			continue
		}
		if !s.End.IsZero() && o.Time.After(s.End) {
			continue
		}
		out = append(out, o)
	}
	return out
}
