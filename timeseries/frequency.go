package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the nominal sampling frequency of a series.
type Frequency int

const (
	Monthly Frequency = iota
	Quarterly
)

// ParseFrequency parses a frequency name ("monthly", "quarterly", or the
// FRED short codes "m" and "q").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "m":
		return Monthly, nil
	case "quarterly", "q":
		return Quarterly, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q", s)
	}
}

// String returns the frequency name.
func (f Frequency) String() string {
	switch f {
	case Quarterly:
		return "quarterly"
	default:
		return "monthly"
	}
}

// Code returns the FRED frequency code.
func (f Frequency) Code() string {
	if f == Quarterly {
		return "q"
	}
	return "m"
}

// Period returns the number of observations per year.
func (f Frequency) Period() int {
	if f == Quarterly {
		return 4
	}
	return 12
}

// Next returns the period start following t.
func (f Frequency) Next(t time.Time) time.Time {
	if f == Quarterly {
		return t.AddDate(0, 3, 0)
	}
	return t.AddDate(0, 1, 0)
}

// Truncate maps t to the start of its period.
func (f Frequency) Truncate(t time.Time) time.Time {
	month := t.Month()
	if f == Quarterly {
		month = time.Month((int(month)-1)/3*3 + 1)
	}
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}
