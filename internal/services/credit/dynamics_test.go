package credit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateDynamics(t *testing.T) {
	history := []float64{100, 105, 98, 110, 120}

	got, err := EstimateDynamics(history)
	require.NoError(t, err)

	returns := make([]float64, 0, len(history)-1)
	var sum float64
	for i := 1; i < len(history); i++ {
		r := math.Log(history[i] / history[i-1])
		returns = append(returns, r)
		sum += r
	}
	mean := sum / float64(len(returns))
	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / float64(len(returns)-1))

	assert.InDelta(t, math.Log(1.2)/4, got.Drift, 1e-12)
	assert.InDelta(t, mean, got.Drift, 1e-12)
	assert.InDelta(t, std, got.Volatility, 1e-12)
	assert.Greater(t, got.Volatility, 0.0)
}

func TestEstimateDynamicsFailures(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		want    error
	}{
		{"empty", nil, ErrInsufficientHistory},
		{"single value", []float64{100}, ErrInsufficientHistory},
		{"flat series", []float64{100, 100, 100}, ErrDegenerateVolatility},
		{"constant growth", []float64{100, 200, 400}, ErrDegenerateVolatility},
		{"single return", []float64{100, 110}, ErrDegenerateVolatility},
		{"zero value", []float64{100, 0, 120}, ErrInvalidHistory},
		{"negative value", []float64{100, -5, 120}, ErrInvalidHistory},
		{"nan value", []float64{100, math.NaN(), 120}, ErrInvalidHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateDynamics(tt.history)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogReturnsLength(t *testing.T) {
	r, err := LogReturns([]float64{1, 2, 4, 8})
	require.NoError(t, err)
	require.Len(t, r, 3)
	for _, v := range r {
		assert.InDelta(t, math.Ln2, v, 1e-12)
	}
}
