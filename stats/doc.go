// Package stats provides the statistical machinery of the pipeline:
// stationarity tests, autocorrelation analysis, residual diagnostics, and
// seasonal-trend decomposition.
//
// # Stationarity
//
// ADF tests the unit-root null; KPSS tests the stationarity null. The
// differencing chooser consults both:
//
//	adf, err := stats.ADF(series, 0)
//	kpss, err := stats.KPSS(series, 0)
//	d := stats.NDiffs(series, 2, "")
//	sd := stats.NSDiffs(series, 12, 1)
//
// # Autocorrelation
//
//	acf := stats.ACF(series, 20)
//	pacf := stats.PACF(series, 20)
//	gram := stats.ACFWithConfidence(series, 20) // with ±1.96/sqrt(n) bounds
//
// # Residual diagnostics
//
//	lb, err := stats.LjungBox(residuals, stats.DefaultLjungBoxLags(n), p+q)
//	dw := stats.DurbinWatson(residuals.Values)
//
// # Decomposition
//
// STL splits a clean series into periodic seasonal, trend, and remainder
// components that sum back to the input exactly:
//
//	decomp, err := stats.STL(series, 12, 2)
//	cycle := decomp.LastCycle()
package stats
