// Package arima implements ARIMA models, seasonal and non-seasonal, with
// conditional sum of squares estimation and interval forecasting.
//
// An Order carries both the regular (p,d,q) and seasonal (P,D,Q)[m] parts;
// a zero seasonal period gives a plain ARIMA model.
//
// # Fitting
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil { ... }
//
//	seasonal := arima.NewSeasonal(1, 0, 1, 0, 1, 1, 12)
//	err := seasonal.Fit(series)
//
// Fit reports timeseries.ErrInsufficientData for series too short for the
// order and ErrNonConvergent when estimation fails numerically.
//
// # Forecasting
//
//	fc, err := model.Forecast(12)
//	// fc.Mean, fc.Lower80/Upper80, fc.Lower95/Upper95
//
// Prediction intervals propagate the residual variance through the model's
// psi weights, so interval widths are non-decreasing in the step index for
// models stationary after differencing.
//
// # Diagnostics
//
//	summary := model.Summary()
//	// summary.AIC, summary.BIC, summary.LjungBox, summary.DurbinWatson
//
// For automatic order selection see the autoarima package.
package arima
