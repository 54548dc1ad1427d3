// Package autoarima implements automatic ARIMA order selection as an
// explicit, bounded search with a fixed objective.
package autoarima

import (
	"fmt"
	"math"

	"github.com/sartorproj/macrocast/arima"
	"github.com/sartorproj/macrocast/stats"
	"github.com/sartorproj/macrocast/timeseries"
)

// Criterion selects the information criterion the search minimizes.
type Criterion string

const (
	AIC  Criterion = "aic"
	AICc Criterion = "aicc"
	BIC  Criterion = "bic"
)

// Config bounds the order search. The search is deterministic: the same
// series and config always select the same model.
type Config struct {
	MaxP int // maximum AR order (default 5)
	MaxD int // maximum differencing order (default 2)
	MaxQ int // maximum MA order (default 5)

	MaxSP int // maximum seasonal AR order (default 2)
	MaxSD int // maximum seasonal differencing order (default 1)
	MaxSQ int // maximum seasonal MA order (default 2)

	Seasonal  bool // search seasonal orders
	SeasonalM int  // seasonal period, required when Seasonal

	Stepwise    bool      // stepwise neighborhood search instead of the full grid
	Criterion   Criterion // objective, default AICc
	StationTest string    // "adf" or "" for the combined KPSS/ADF chooser
}

// DefaultConfig returns the default search bounds: stepwise search over
// p,q <= 5 and seasonal orders <= 2, minimizing AICc.
func DefaultConfig() *Config {
	return &Config{
		MaxP:      5,
		MaxD:      2,
		MaxQ:      5,
		MaxSP:     2,
		MaxSD:     1,
		MaxSQ:     2,
		Stepwise:  true,
		Criterion: AICc,
	}
}

// Result is the outcome of a search: the selected fitted model and how the
// search got there.
type Result struct {
	Model           *arima.Model
	Order           arima.Order
	Criterion       float64
	ModelsEvaluated int
}

// Search selects and fits the best model for the series within the
// configured bounds. The differencing orders come from repeated
// stationarity testing; (p,q) and the seasonal (P,Q) minimize the
// configured criterion. Returns arima.ErrNonConvergent when no candidate
// order achieves a stable fit.
func Search(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Criterion == "" {
		config.Criterion = AICc
	}

	d := stats.NDiffs(series, config.MaxD, config.StationTest)

	sd := 0
	if config.Seasonal && config.SeasonalM > 1 {
		sd = stats.NSDiffs(series, config.SeasonalM, config.MaxSD)
	}

	var result *Result
	if config.Stepwise {
		result = stepwiseSearch(series, d, sd, config)
	} else {
		result = gridSearch(series, d, sd, config)
	}

	if result.Model == nil {
		return nil, fmt.Errorf("no candidate order in p<=%d q<=%d converged: %w",
			config.MaxP, config.MaxQ, arima.ErrNonConvergent)
	}
	return result, nil
}

type candidate struct {
	p, q, sp, sq int
}

func (c *Config) inBounds(s candidate) bool {
	if s.p < 0 || s.p > c.MaxP || s.q < 0 || s.q > c.MaxQ {
		return false
	}
	if !c.Seasonal {
		return s.sp == 0 && s.sq == 0
	}
	return s.sp >= 0 && s.sp <= c.MaxSP && s.sq >= 0 && s.sq <= c.MaxSQ
}

func (c *Config) criterionOf(m *arima.Model) float64 {
	switch c.Criterion {
	case BIC:
		return m.BIC
	case AIC:
		return m.AIC
	default:
		return m.AICc
	}
}

func (c *Config) fitCandidate(series *timeseries.Series, s candidate, d, sd int) *arima.Model {
	var model *arima.Model
	if c.Seasonal && c.SeasonalM > 1 {
		model = arima.NewSeasonal(s.p, d, s.q, s.sp, sd, s.sq, c.SeasonalM)
	} else {
		model = arima.New(s.p, d, s.q)
	}
	if err := model.Fit(series); err != nil {
		return nil
	}
	return model
}

// gridSearch evaluates every candidate order within the bounds.
func gridSearch(series *timeseries.Series, d, sd int, config *Config) *Result {
	best := &Result{Criterion: math.Inf(1)}
	evaluated := 0

	maxSP, maxSQ := 0, 0
	if config.Seasonal && config.SeasonalM > 1 {
		maxSP, maxSQ = config.MaxSP, config.MaxSQ
	}

	for p := 0; p <= config.MaxP; p++ {
		for q := 0; q <= config.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					model := config.fitCandidate(series, candidate{p, q, sp, sq}, d, sd)
					if model == nil {
						continue
					}
					evaluated++
					if crit := config.criterionOf(model); crit < best.Criterion {
						best = &Result{
							Model:     model,
							Order:     model.Order,
							Criterion: crit,
						}
					}
				}
			}
		}
	}

	best.ModelsEvaluated = evaluated
	return best
}

// stepwiseSearch starts from a handful of standard candidates and walks to
// neighboring orders while the criterion improves.
func stepwiseSearch(series *timeseries.Series, d, sd int, config *Config) *Result {
	var start []candidate
	if config.Seasonal && config.SeasonalM > 1 {
		start = []candidate{
			{2, 2, 1, 1},
			{0, 0, 0, 0},
			{1, 0, 1, 0},
			{0, 1, 0, 1},
		}
	} else {
		start = []candidate{
			{2, 2, 0, 0},
			{0, 0, 0, 0},
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{1, 1, 0, 0},
		}
	}

	best := candidate{}
	bestCriterion := math.Inf(1)
	var bestModel *arima.Model
	evaluated := 0

	try := func(s candidate) bool {
		if !config.inBounds(s) {
			return false
		}
		model := config.fitCandidate(series, s, d, sd)
		if model == nil {
			return false
		}
		evaluated++
		if crit := config.criterionOf(model); crit < bestCriterion {
			bestCriterion = crit
			best = s
			bestModel = model
			return true
		}
		return false
	}

	for _, s := range start {
		try(s)
	}

	improved := true
	for improved {
		improved = false
		neighbors := []candidate{
			{best.p + 1, best.q, best.sp, best.sq},
			{best.p - 1, best.q, best.sp, best.sq},
			{best.p, best.q + 1, best.sp, best.sq},
			{best.p, best.q - 1, best.sp, best.sq},
			{best.p + 1, best.q + 1, best.sp, best.sq},
			{best.p - 1, best.q - 1, best.sp, best.sq},
			{best.p, best.q, best.sp + 1, best.sq},
			{best.p, best.q, best.sp - 1, best.sq},
			{best.p, best.q, best.sp, best.sq + 1},
			{best.p, best.q, best.sp, best.sq - 1},
		}
		for _, s := range neighbors {
			if try(s) {
				improved = true
			}
		}
	}

	if bestModel == nil {
		return &Result{Criterion: math.Inf(1), ModelsEvaluated: evaluated}
	}

	return &Result{
		Model:           bestModel,
		Order:           bestModel.Order,
		Criterion:       bestCriterion,
		ModelsEvaluated: evaluated,
	}
}
