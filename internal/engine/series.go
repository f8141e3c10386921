package engine

import (
	"time"

	"stocksim/types"
)

// lookupCap bounds the forward search for the next observation. Calendars
// have gaps (weekends, holidays, non-trading hours), so the series is sparse
// relative to the nominal clock grid and probing past a gap is expected.
const lookupCap = 1000

// assetSeries is the cached forward close-price series for one asset,
// keyed for interval-grid lookups.
type assetSeries struct {
	symbol   string
	interval types.Interval
	byKey    map[string]types.Observation
}

func newAssetSeries(symbol string, interval types.Interval, observations []types.Observation) *assetSeries {
	s := &assetSeries{
		symbol:   symbol,
		interval: interval,
		byKey:    make(map[string]types.Observation, len(observations)),
	}
	for _, obs := range observations {
		s.byKey[seriesKey(obs.Timestamp, interval)] = obs
	}
	return s
}

// seriesKey anchors a timestamp to the lookup grid: calendar date for daily
// series, date plus hour for intraday ones.
func seriesKey(t time.Time, interval types.Interval) string {
	if interval.Intraday() {
		return t.UTC().Format("2006-01-02 15")
	}
	return t.UTC().Format("2006-01-02")
}

func (s *assetSeries) len() int {
	return len(s.byKey)
}

// nextAfter walks the nominal grid from the given position, one interval at
// a time, until it finds an observation newer than last. The walk is capped
// at lookupCap probes; exhaustion means the cached series has run out.
func (s *assetSeries) nextAfter(from, last time.Time) (types.Observation, bool) {
	probe := from
	for i := 0; i < lookupCap; i++ {
		if obs, ok := s.byKey[seriesKey(probe, s.interval)]; ok && obs.Timestamp.After(last) {
			return obs, true
		}
		probe = probe.Add(s.interval.Duration())
	}
	return types.Observation{}, false
}
