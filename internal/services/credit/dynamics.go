package credit

import (
	"fmt"
	"math"

	"CreditRisk/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

// minVolatility is the smallest volatility the solver accepts.
const minVolatility = 1e-12

// LogReturns computes r_i = ln(a_i / a_{i-1}) over an oldest->newest series.
// It returns len(history)-1 values.
func LogReturns(history []float64) ([]float64, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 values, got %d", ErrInsufficientHistory, len(history))
	}
	for i, v := range history {
		if !(v > 0) || !isFinite(v) {
			return nil, fmt.Errorf("%w: value %d is %v", ErrInvalidHistory, i, v)
		}
	}
	out := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		out = append(out, logRatio(history[i], history[i-1]))
	}
	return out, nil
}

// EstimateDynamics returns the mean (drift) and sample standard deviation
// (volatility, divisor n-1) of the log-returns of the asset history.
func EstimateDynamics(history []float64) (models.AssetDynamics, error) {
	returns, err := LogReturns(history)
	if err != nil {
		return models.AssetDynamics{}, err
	}
	// a single return has no sample deviation
	if len(returns) < 2 {
		return models.AssetDynamics{}, fmt.Errorf("%w: one return cannot define a deviation", ErrDegenerateVolatility)
	}

	drift, vol := stat.MeanStdDev(returns, nil)
	if !isFinite(drift) {
		return models.AssetDynamics{}, fmt.Errorf("%w: drift is %v", ErrInvalidHistory, drift)
	}
	if !isFinite(vol) || vol < minVolatility {
		return models.AssetDynamics{}, fmt.Errorf("%w: volatility is %v", ErrDegenerateVolatility, vol)
	}
	return models.AssetDynamics{Drift: drift, Volatility: vol}, nil
}

func logRatio(a, b float64) float64 { return math.Log(a / b) }
