package types

import "time"

// Interval is the step granularity of a simulation: the nominal duration
// between two consecutive timesteps.
type Interval string

const (
	Hour      Interval = "60"
	TwoHours  Interval = "120"
	FourHours Interval = "240"
	Day       Interval = "D"
)

var IntervalToTime = map[Interval]time.Duration{
	Hour:      time.Hour,
	TwoHours:  time.Hour * 2,
	FourHours: time.Hour * 4,
	Day:       time.Hour * 24,
}

var ConvertInterval = map[string]Interval{
	"60":  Hour,
	"1h":  Hour,
	"120": TwoHours,
	"2h":  TwoHours,
	"240": FourHours,
	"4h":  FourHours,
	"D":   Day,
	"1d":  Day,
}

// ParseInterval maps a CLI/config spelling to an Interval.
func ParseInterval(s string) (Interval, bool) {
	interval, ok := ConvertInterval[s]
	return interval, ok
}

// Duration returns the nominal wall-clock span of one interval.
func (i Interval) Duration() time.Duration {
	return IntervalToTime[i]
}

// Valid reports whether the interval is a supported step granularity.
func (i Interval) Valid() bool {
	_, ok := IntervalToTime[i]
	return ok
}

// Intraday reports whether observations within one calendar day are distinct.
func (i Interval) Intraday() bool {
	return i != Day
}
