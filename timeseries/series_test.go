package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewWithFrequency(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := NewWithFrequency("test", Monthly, testStart, values)

	if s.Len() != 5 {
		t.Fatalf("Expected length 5, got %d", s.Len())
	}

	for i, v := range s.Values {
		if v != values[i] {
			t.Errorf("Expected value %f at index %d, got %f", values[i], i, v)
		}
	}

	for i := 1; i < s.Len(); i++ {
		want := s.Timestamps[i-1].AddDate(0, 1, 0)
		if !s.Timestamps[i].Equal(want) {
			t.Errorf("Timestamp %d: expected %v, got %v", i, want, s.Timestamps[i])
		}
	}
}

func TestQuarterlySpacing(t *testing.T) {
	s := NewWithFrequency("gdp", Quarterly, testStart, []float64{1, 2, 3, 4})

	want := time.Date(2000, 10, 1, 0, 0, 0, 0, time.UTC)
	if !s.Timestamps[3].Equal(want) {
		t.Errorf("Expected 4th quarter at %v, got %v", want, s.Timestamps[3])
	}
}

func TestFromObservations(t *testing.T) {
	obs := []Observation{
		{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Value: 4.0},
		{Time: time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC), Value: 4.1},
		// March missing entirely
		{Time: time.Date(2000, 4, 1, 0, 0, 0, 0, time.UTC), Value: 4.3},
	}

	s, err := FromObservations("UNRATE", Monthly, obs)
	if err != nil {
		t.Fatalf("FromObservations failed: %v", err)
	}

	if s.Len() != 4 {
		t.Fatalf("Expected 4 periods, got %d", s.Len())
	}
	if !math.IsNaN(s.Values[2]) {
		t.Errorf("Expected missing March to be NaN, got %f", s.Values[2])
	}
	if s.MissingCount() != 1 {
		t.Errorf("Expected 1 missing value, got %d", s.MissingCount())
	}
}

func TestFromObservationsOrdering(t *testing.T) {
	obs := []Observation{
		{Time: time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC), Value: 1},
		{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Value: 2},
	}

	if _, err := FromObservations("bad", Monthly, obs); err == nil {
		t.Error("Expected error for non-increasing timestamps")
	}
}

func TestFromObservationsEmpty(t *testing.T) {
	_, err := FromObservations("empty", Monthly, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestMeanIgnoresMissing(t *testing.T) {
	s := New("test", testStart, []float64{2, math.NaN(), 4})
	if got := s.Mean(); math.Abs(got-3) > 1e-10 {
		t.Errorf("Expected mean 3, got %f", got)
	}
}

func TestDiff(t *testing.T) {
	s := New("test", testStart, []float64{1, 3, 6, 10})
	diff := s.Diff()

	expected := []float64{2, 3, 4}
	if diff.Len() != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), diff.Len())
	}
	for i, v := range expected {
		if math.Abs(diff.Values[i]-v) > 1e-10 {
			t.Errorf("Expected diff %f at index %d, got %f", v, i, diff.Values[i])
		}
	}
	if !diff.Timestamps[0].Equal(s.Timestamps[1]) {
		t.Error("Diff should drop the first timestamp")
	}
}

func TestSeasonalDiff(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i)
	}
	s := New("test", testStart, values)
	sdiff := s.SeasonalDiff(12)

	if sdiff.Len() != 12 {
		t.Fatalf("Expected length 12, got %d", sdiff.Len())
	}
	for i, v := range sdiff.Values {
		if math.Abs(v-12) > 1e-10 {
			t.Errorf("Expected 12 at index %d, got %f", i, v)
		}
	}
}

func TestSlice(t *testing.T) {
	s := New("test", testStart, []float64{0, 1, 2, 3, 4})

	sub := s.Slice(1, 3)
	if sub.Len() != 2 {
		t.Fatalf("Expected length 2, got %d", sub.Len())
	}
	if sub.Values[0] != 1 || sub.Values[1] != 2 {
		t.Errorf("Unexpected slice values: %v", sub.Values)
	}
	if !sub.Timestamps[0].Equal(s.Timestamps[1]) {
		t.Error("Slice should keep original timestamps")
	}

	// Mutating the slice must not touch the original.
	sub.Values[0] = 99
	if s.Values[1] == 99 {
		t.Error("Slice should copy values")
	}
}

func TestInterpolateSingleGap(t *testing.T) {
	// Unemployment-rate-like series with one missing month: the filled
	// value must land strictly between its neighbors.
	s := New("UNRATE", testStart, []float64{4.0, 4.2, math.NaN(), 4.8, 5.0})

	clean, err := s.Interpolate()
	if err != nil {
		t.Fatalf("Interpolate failed: %v", err)
	}

	got := clean.Values[2]
	if !(got > 4.2 && got < 4.8) {
		t.Errorf("Interpolated value %f not strictly between 4.2 and 4.8", got)
	}
	if math.Abs(got-4.5) > 1e-10 {
		t.Errorf("Expected midpoint 4.5, got %f", got)
	}
	if clean.MissingCount() != 0 {
		t.Errorf("Expected no missing values after interpolation, got %d", clean.MissingCount())
	}
}

func TestInterpolateRunOfGaps(t *testing.T) {
	s := New("test", testStart, []float64{1, math.NaN(), math.NaN(), 7})

	clean, err := s.Interpolate()
	if err != nil {
		t.Fatalf("Interpolate failed: %v", err)
	}

	expected := []float64{1, 3, 5, 7}
	for i, v := range expected {
		if math.Abs(clean.Values[i]-v) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", v, i, clean.Values[i])
		}
	}
}

func TestInterpolateEdges(t *testing.T) {
	s := New("test", testStart, []float64{math.NaN(), 2, 4, math.NaN()})

	clean, err := s.Interpolate()
	if err != nil {
		t.Fatalf("Interpolate failed: %v", err)
	}

	if clean.Values[0] != 2 {
		t.Errorf("Leading gap should take nearest known value 2, got %f", clean.Values[0])
	}
	if clean.Values[3] != 4 {
		t.Errorf("Trailing gap should take nearest known value 4, got %f", clean.Values[3])
	}
}

func TestInterpolateInsufficient(t *testing.T) {
	s := New("test", testStart, []float64{math.NaN(), 2, math.NaN()})

	_, err := s.Interpolate()
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestInterpolateDoesNotMutate(t *testing.T) {
	s := New("test", testStart, []float64{1, math.NaN(), 3})

	if _, err := s.Interpolate(); err != nil {
		t.Fatalf("Interpolate failed: %v", err)
	}
	if !math.IsNaN(s.Values[1]) {
		t.Error("Interpolate must not mutate the source series")
	}
}

func TestAlignLengths(t *testing.T) {
	group := []*Series{
		New("a", testStart, []float64{1, 2, 3, 4, 5}),
		New("b", testStart, []float64{1, 2, 3}),
		New("c", testStart, []float64{1, 2, 3, 4}),
	}

	aligned := AlignLengths(group)
	for _, s := range aligned {
		if s.Len() != 3 {
			t.Errorf("Series %s: expected length 3, got %d", s.Name, s.Len())
		}
	}

	// Start period is preserved.
	if !aligned[0].Start().Equal(testStart) {
		t.Errorf("Alignment should preserve start period, got %v", aligned[0].Start())
	}
}

func TestAlignLengthsIdempotent(t *testing.T) {
	group := []*Series{
		New("a", testStart, []float64{1, 2, 3, 4, 5}),
		New("b", testStart, []float64{6, 7, 8}),
	}

	once := AlignLengths(group)
	twice := AlignLengths(once)

	for i := range once {
		if once[i].Len() != twice[i].Len() {
			t.Fatalf("Alignment not idempotent: %d vs %d", once[i].Len(), twice[i].Len())
		}
		for j := range once[i].Values {
			if once[i].Values[j] != twice[i].Values[j] {
				t.Fatalf("Alignment not idempotent at [%d][%d]", i, j)
			}
		}
	}
}
