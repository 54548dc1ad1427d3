// Package macrocast forecasts macroeconomic time series with ARIMA models.
//
// Macrocast retrieves economic series (unemployment rate, real GDP,
// inflation expectations, or any other FRED series), prepares them onto a
// regular calendar, and produces point forecasts with 80% and 95%
// prediction intervals.
//
// # Pipeline
//
// A run moves each series through the same stages:
//
//   - fetch observations from FRED or a local CSV file
//   - interpolate missing values and align lengths across series
//   - test for stationarity (ADF, KPSS)
//   - decompose seasonal series into trend, seasonal, and remainder
//   - select ARIMA orders by a bounded information-criterion search
//   - cross-validate forecast accuracy with rolling origins
//   - check residuals (Ljung-Box, Durbin-Watson)
//   - forecast with prediction intervals
//
// Failures are isolated per series: one bad series never aborts the rest
// of a run.
//
// # Quick Start
//
// Fit and forecast a single series:
//
//	series := timeseries.NewWithFrequency("UNRATE", timeseries.Monthly, start, values)
//	result, _ := autoarima.Search(series, autoarima.DefaultConfig())
//	forecast, _ := result.Model.Forecast(12)
//
// Or run the full pipeline from a config file with the macrocast command:
//
//	macrocast --config macrocast.yaml --out results.json
//
// # Packages
//
//   - timeseries: series data structures, interpolation, CSV loading
//   - stats: stationarity tests, ACF/PACF, Ljung-Box, STL decomposition
//   - arima: seasonal and non-seasonal ARIMA estimation and forecasting
//   - autoarima: bounded automatic order selection
//   - crossval: rolling-origin forecast evaluation
//   - fred: FRED API client
//   - config: YAML run configuration
//   - pipeline: per-series orchestration
//   - report: text and JSON report rendering
package macrocast
