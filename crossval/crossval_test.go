package crossval

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/macrocast/timeseries"
)

type meanPredictor struct {
	mean float64
}

func (p meanPredictor) Predict(h int) ([]float64, error) {
	out := make([]float64, h)
	for i := range out {
		out[i] = p.mean
	}
	return out, nil
}

type lastValuePredictor struct {
	last float64
}

func (p lastValuePredictor) Predict(h int) ([]float64, error) {
	out := make([]float64, h)
	for i := range out {
		out[i] = p.last
	}
	return out, nil
}

func fitMean(train *timeseries.Series) (Predictor, error) {
	return meanPredictor{mean: train.Mean()}, nil
}

func fitLast(train *timeseries.Series) (Predictor, error) {
	return lastValuePredictor{last: train.Values[train.Len()-1]}, nil
}

func testSeries(t *testing.T, values []float64) *timeseries.Series {
	t.Helper()
	return timeseries.NewWithFrequency("cv", timeseries.Monthly,
		time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), values)
}

func TestEvaluateConstantSeries(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 7.5
	}
	s := testSeries(t, values)

	result, err := Evaluate(s, Config{InitialSize: 24, Horizon: 6}, fitMean)
	require.NoError(t, err)

	assert.Zero(t, result.MAE, "a constant series is forecast perfectly by its mean")
	assert.Zero(t, result.RMSE)
	assert.Equal(t, 0, result.Failed)
	assert.NotEmpty(t, result.Folds)
}

func TestEvaluateMetricsNonNegative(t *testing.T) {
	values := make([]float64, 80)
	for i := range values {
		values[i] = 5 + float64(i%7)
	}
	s := testSeries(t, values)

	result, err := Evaluate(s, Config{InitialSize: 30, Horizon: 4}, fitLast)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.MAE, 0.0)
	assert.GreaterOrEqual(t, result.RMSE, result.MAE,
		"RMSE is bounded below by MAE")
	for _, fold := range result.Folds {
		assert.GreaterOrEqual(t, fold.MAE, 0.0)
		assert.Len(t, fold.Predicted, 4)
		assert.Len(t, fold.Actual, 4)
	}
}

func TestEvaluateFoldLayout(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i)
	}
	s := testSeries(t, values)

	result, err := Evaluate(s, Config{InitialSize: 20, Horizon: 5, Step: 5}, fitLast)
	require.NoError(t, err)

	// origins at 20, 25, 30, 35, 40, 45
	require.Len(t, result.Folds, 6)
	for i, fold := range result.Folds {
		assert.Equal(t, 20+5*i, fold.TrainEnd)
	}
}

func TestEvaluateMaxFolds(t *testing.T) {
	values := make([]float64, 100)
	s := testSeries(t, values)

	result, err := Evaluate(s, Config{InitialSize: 20, Horizon: 5, MaxFolds: 3}, fitMean)
	require.NoError(t, err)
	assert.Len(t, result.Folds, 3)
}

func TestEvaluateTooShort(t *testing.T) {
	s := testSeries(t, []float64{1, 2, 3, 4, 5})

	_, err := Evaluate(s, Config{InitialSize: 10, Horizon: 5}, fitMean)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeseries.ErrInsufficientData))
}

func TestEvaluateInvalidConfig(t *testing.T) {
	s := testSeries(t, make([]float64, 50))

	_, err := Evaluate(s, Config{InitialSize: 10, Horizon: 0}, fitMean)
	assert.Error(t, err)

	_, err = Evaluate(s, Config{InitialSize: 0, Horizon: 5}, fitMean)
	assert.Error(t, err)
}

func TestEvaluateAllFitsFail(t *testing.T) {
	s := testSeries(t, make([]float64, 50))

	_, err := Evaluate(s, Config{InitialSize: 10, Horizon: 5},
		func(*timeseries.Series) (Predictor, error) {
			return nil, fmt.Errorf("always fails")
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeseries.ErrInsufficientData))
}

func TestEvaluateAllHoldoutsMissing(t *testing.T) {
	// The held-out region is entirely missing, so every forecast point is
	// skipped and no metric can be formed.
	values := make([]float64, 30)
	for i := range values {
		if i < 20 {
			values[i] = 3
		} else {
			values[i] = math.NaN()
		}
	}
	s := testSeries(t, values)

	_, err := Evaluate(s, Config{InitialSize: 20, Horizon: 5, Step: 5}, fitMean)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeseries.ErrInsufficientData))
}

func TestEvaluateTrainingWindowExpands(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = float64(i)
	}
	s := testSeries(t, values)

	var sizes []int
	_, err := Evaluate(s, Config{InitialSize: 20, Horizon: 10, Step: 10},
		func(train *timeseries.Series) (Predictor, error) {
			sizes = append(sizes, train.Len())
			return fitLast(train)
		})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 30, 40, 50}, sizes)
}
