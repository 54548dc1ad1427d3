// Package crossval evaluates forecasting models by rolling-origin
// cross-validation: refit on an expanding training window, forecast the
// next block, and score the forecasts against the held-out observations.
package crossval

import (
	"fmt"
	"math"

	"github.com/sartorproj/macrocast/timeseries"
)

// Predictor produces point forecasts for h steps beyond its training data.
type Predictor interface {
	Predict(h int) ([]float64, error)
}

// FitFunc fits a model to a training window. Returning an error skips the
// fold rather than aborting the evaluation.
type FitFunc func(train *timeseries.Series) (Predictor, error)

// Config controls the fold layout. All positions are observation indexes;
// no calendar arithmetic is involved.
type Config struct {
	InitialSize int // observations in the first training window
	Horizon     int // forecast steps scored per fold
	Step        int // origin advance between folds, defaults to Horizon
	MaxFolds    int // cap on scored folds, 0 means no cap
}

// Fold records one train/test split and its scores.
type Fold struct {
	TrainEnd  int // index one past the last training observation
	Actual    []float64
	Predicted []float64
	MAE       float64
	RMSE      float64
	MAPE      float64
}

// Result aggregates fold scores. The headline metrics are averaged over
// all scored forecast points, not over folds, so longer folds weigh more.
type Result struct {
	MAE    float64
	RMSE   float64
	MAPE   float64
	Folds  []Fold
	Failed int // folds skipped because fitting or predicting failed
}

// Evaluate runs the rolling-origin procedure over the series. Returns an
// error wrapping timeseries.ErrInsufficientData when the series cannot host
// a single fold.
func Evaluate(series *timeseries.Series, config Config, fit FitFunc) (*Result, error) {
	if config.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", config.Horizon)
	}
	if config.InitialSize <= 0 {
		return nil, fmt.Errorf("initial window must be positive, got %d", config.InitialSize)
	}
	if config.Step <= 0 {
		config.Step = config.Horizon
	}

	n := series.Len()
	if config.InitialSize+config.Horizon > n {
		return nil, fmt.Errorf("series of %d observations cannot host a %d+%d fold: %w",
			n, config.InitialSize, config.Horizon, timeseries.ErrInsufficientData)
	}

	result := &Result{}
	var absSum, sqSum, pctSum float64
	var pctCount, total int

	for trainEnd := config.InitialSize; trainEnd+config.Horizon <= n; trainEnd += config.Step {
		if config.MaxFolds > 0 && len(result.Folds) >= config.MaxFolds {
			break
		}

		train := series.Slice(0, trainEnd)
		model, err := fit(train)
		if err != nil {
			result.Failed++
			continue
		}
		predicted, err := model.Predict(config.Horizon)
		if err != nil || len(predicted) != config.Horizon {
			result.Failed++
			continue
		}

		actual := series.Values[trainEnd : trainEnd+config.Horizon]
		fold := scoreFold(trainEnd, actual, predicted)
		result.Folds = append(result.Folds, fold)

		for i, a := range actual {
			if math.IsNaN(a) || math.IsNaN(predicted[i]) {
				continue
			}
			diff := predicted[i] - a
			absSum += math.Abs(diff)
			sqSum += diff * diff
			total++
			if a != 0 {
				pctSum += math.Abs(diff/a) * 100
				pctCount++
			}
		}
	}

	if len(result.Folds) == 0 {
		return nil, fmt.Errorf("no fold completed (%d failed): %w",
			result.Failed, timeseries.ErrInsufficientData)
	}
	if total == 0 {
		return nil, fmt.Errorf("no scored forecast point in %d folds: %w",
			len(result.Folds), timeseries.ErrInsufficientData)
	}

	result.MAE = absSum / float64(total)
	result.RMSE = math.Sqrt(sqSum / float64(total))
	if pctCount > 0 {
		result.MAPE = pctSum / float64(pctCount)
	} else {
		result.MAPE = math.NaN()
	}
	return result, nil
}

func scoreFold(trainEnd int, actual, predicted []float64) Fold {
	var absSum, sqSum, pctSum float64
	var n, pctN int
	for i, a := range actual {
		if math.IsNaN(a) || math.IsNaN(predicted[i]) {
			continue
		}
		diff := predicted[i] - a
		absSum += math.Abs(diff)
		sqSum += diff * diff
		n++
		if a != 0 {
			pctSum += math.Abs(diff/a) * 100
			pctN++
		}
	}

	fold := Fold{
		TrainEnd:  trainEnd,
		Actual:    append([]float64(nil), actual...),
		Predicted: append([]float64(nil), predicted...),
		MAPE:      math.NaN(),
	}
	if n > 0 {
		fold.MAE = absSum / float64(n)
		fold.RMSE = math.Sqrt(sqSum / float64(n))
	}
	if pctN > 0 {
		fold.MAPE = pctSum / float64(pctN)
	}
	return fold
}
