package timeseries

import (
	"fmt"
	"math"
)

// Interpolate returns a copy of the series with missing values filled by
// linear interpolation between the nearest known neighbors. Leading and
// trailing gaps, which have only one known neighbor, take that neighbor's
// value. Requires at least two known observations.
func (s *Series) Interpolate() (*Series, error) {
	known := s.Len() - s.MissingCount()
	if known < 2 {
		return nil, fmt.Errorf("series %s: %d known points, need 2 to interpolate: %w",
			s.Name, known, ErrInsufficientData)
	}

	out := s.Copy()
	n := out.Len()

	prev := -1 // index of last known value
	for i := 0; i < n; i++ {
		if !math.IsNaN(out.Values[i]) {
			prev = i
			continue
		}

		// Find the next known value.
		next := -1
		for j := i + 1; j < n; j++ {
			if !math.IsNaN(out.Values[j]) {
				next = j
				break
			}
		}

		switch {
		case prev >= 0 && next >= 0:
			left, right := out.Values[prev], out.Values[next]
			frac := float64(i-prev) / float64(next-prev)
			out.Values[i] = left + frac*(right-left)
		case next >= 0:
			out.Values[i] = out.Values[next]
		default:
			out.Values[i] = out.Values[prev]
		}
	}

	return out, nil
}

// AlignLengths truncates every series in the group to the shortest length
// so cross-series operations see identical lengths. Applying it to an
// already aligned group is a no-op.
func AlignLengths(group []*Series) []*Series {
	if len(group) == 0 {
		return nil
	}

	minLen := group[0].Len()
	for _, s := range group[1:] {
		if s.Len() < minLen {
			minLen = s.Len()
		}
	}

	out := make([]*Series, len(group))
	for i, s := range group {
		out[i] = s.Slice(0, minLen)
	}
	return out
}
