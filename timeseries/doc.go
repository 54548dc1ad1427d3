// Package timeseries provides time series data structures and preparation
// utilities for macroeconomic series.
//
// The Series type represents a regularly spaced sequence at a declared
// frequency (monthly or quarterly). Missing observations are carried as NaN
// until an explicit fill step runs; nothing is dropped silently.
//
// # Building a Series
//
// From raw fetched observations:
//
//	obs, err := timeseries.LoadCSV("unrate.csv", nil)
//	series, err := timeseries.FromObservations("UNRATE", timeseries.Monthly, obs)
//
// From a plain slice (tests, synthetic data):
//
//	series := timeseries.New("synthetic", start, values)
//
// # Preparation
//
// Fill gaps and align a comparison group:
//
//	clean, err := series.Interpolate()
//	aligned := timeseries.AlignLengths([]*timeseries.Series{a, b, c})
//
// Interpolate fills interior gaps linearly between the nearest known
// neighbors and extends edge gaps with the nearest known value. AlignLengths
// truncates every series to the shortest length and is idempotent.
//
// # Transformations
//
// Differencing for the modeling packages:
//
//	diff := series.Diff()            // first difference
//	sdiff := series.SeasonalDiff(12) // seasonal difference
//	subset := series.Slice(10, 50)   // positional slice
package timeseries
