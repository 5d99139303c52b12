package credit

import (
	"fmt"
	"math"

	"CreditRisk/internal/domain/models"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultHorizon       = 1.0
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
	// MinDelta is the smallest N(d1) the Newton step divides by.
	MinDelta = 1e-12
)

// SolverParams configures a Merton solve. Drift and Volatility come from
// EstimateDynamics; InitialGuess is normally the snapshot's total assets.
type SolverParams struct {
	Horizon       float64
	Drift         float64
	Volatility    float64
	InitialGuess  float64
	Tolerance     float64
	MaxIterations int
	// ScaleTolerance compares the step against Tolerance*max(1, |V|)
	// instead of Tolerance alone.
	ScaleTolerance bool
}

// SolverOption mutates SolverParams.
type SolverOption func(*SolverParams)

func WithHorizon(t float64) SolverOption {
	return func(p *SolverParams) { p.Horizon = t }
}

func WithTolerance(eps float64) SolverOption {
	return func(p *SolverParams) { p.Tolerance = eps }
}

func WithMaxIterations(n int) SolverOption {
	return func(p *SolverParams) { p.MaxIterations = n }
}

// WithScaledTolerance makes the convergence test relative to the iterate's
// magnitude, needed when statements are expressed in raw currency units.
func WithScaledTolerance(on bool) SolverOption {
	return func(p *SolverParams) { p.ScaleTolerance = on }
}

// NewSolverParams builds solver parameters with the default horizon,
// tolerance and iteration cap, then applies opts.
func NewSolverParams(d models.AssetDynamics, initialGuess float64, opts ...SolverOption) SolverParams {
	p := SolverParams{
		Horizon:       DefaultHorizon,
		Drift:         d.Drift,
		Volatility:    d.Volatility,
		InitialGuess:  initialGuess,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// SolveAssetValue finds the asset value V whose Black-Scholes call value on
// the default point equals the observed equity, iterating
//
//	V_next = V + (E - E_model(V)) / N(d1)
//
// from p.InitialGuess. Running out of iterations is not an error: the last
// iterate is returned with Converged=false.
func SolveAssetValue(equity, defaultPoint float64, p SolverParams) (models.SolverResult, error) {
	if err := validateModel(defaultPoint, p); err != nil {
		return models.SolverResult{}, err
	}
	if !isFinite(equity) {
		return models.SolverResult{}, fmt.Errorf("%w: equity is %v", ErrInvalidInput, equity)
	}
	if !(p.InitialGuess > 0) || !isFinite(p.InitialGuess) {
		return models.SolverResult{}, fmt.Errorf("%w: initial guess is %v", ErrInvalidInput, p.InitialGuess)
	}
	if !(p.Tolerance > 0) {
		return models.SolverResult{}, fmt.Errorf("%w: tolerance is %v", ErrInvalidInput, p.Tolerance)
	}
	if p.MaxIterations < 1 {
		return models.SolverResult{}, fmt.Errorf("%w: max iterations is %d", ErrInvalidInput, p.MaxIterations)
	}

	v := p.InitialGuess
	for i := 1; i <= p.MaxIterations; i++ {
		model, delta := equityValue(v, defaultPoint, p)
		if !(delta >= MinDelta) {
			return models.SolverResult{}, &DivergenceError{Iteration: i, Value: delta, Reason: "N(d1) vanished"}
		}
		next := v + (equity-model)/delta
		if !isFinite(next) {
			return models.SolverResult{}, &DivergenceError{Iteration: i, Value: next, Reason: "non-finite asset value"}
		}
		if next <= 0 {
			return models.SolverResult{}, &DivergenceError{Iteration: i, Value: next, Reason: "non-positive asset value"}
		}

		if math.Abs(next-v) < p.tolerance(v) {
			return models.SolverResult{ImpliedAssetValue: next, Iterations: i, Converged: true}, nil
		}
		v = next
	}
	return models.SolverResult{ImpliedAssetValue: v, Iterations: p.MaxIterations, Converged: false}, nil
}

// DefaultProbability returns 1 - N(d2) evaluated at the solved asset value.
// It does not reject non-converged results; callers decide that.
func DefaultProbability(res models.SolverResult, defaultPoint float64, p SolverParams) (float64, error) {
	return ProbabilityAt(res.ImpliedAssetValue, defaultPoint, p)
}

// ProbabilityAt returns the Merton default probability for asset value v.
func ProbabilityAt(v, defaultPoint float64, p SolverParams) (float64, error) {
	if err := validateModel(defaultPoint, p); err != nil {
		return 0, err
	}
	if !(v > 0) || !isFinite(v) {
		return 0, fmt.Errorf("%w: asset value is %v", ErrInvalidInput, v)
	}
	_, d2 := distanceTerms(v, defaultPoint, p)
	pd := distuv.UnitNormal.Survival(d2)
	if !isFinite(pd) {
		return 0, fmt.Errorf("%w: default probability is %v", ErrNumericalDivergence, pd)
	}
	return pd, nil
}

// distanceTerms is shared by the solver and the probability so both use the
// same d1/d2.
func distanceTerms(v, defaultPoint float64, p SolverParams) (d1, d2 float64) {
	sigmaT := p.Volatility * math.Sqrt(p.Horizon)
	d1 = (logRatio(v, defaultPoint) + (p.Drift+0.5*p.Volatility*p.Volatility)*p.Horizon) / sigmaT
	return d1, d1 - sigmaT
}

// equityValue returns the model equity value E_model(V) and its delta N(d1).
func equityValue(v, defaultPoint float64, p SolverParams) (model, delta float64) {
	d1, d2 := distanceTerms(v, defaultPoint, p)
	delta = distuv.UnitNormal.CDF(d1)
	model = v*delta - defaultPoint*math.Exp(-p.Drift*p.Horizon)*distuv.UnitNormal.CDF(d2)
	return model, delta
}

func (p SolverParams) tolerance(v float64) float64 {
	if p.ScaleTolerance {
		return p.Tolerance * math.Max(1, math.Abs(v))
	}
	return p.Tolerance
}

func validateModel(defaultPoint float64, p SolverParams) error {
	if !(defaultPoint > 0) || !isFinite(defaultPoint) {
		return fmt.Errorf("%w: %v", ErrInvalidDefaultPoint, defaultPoint)
	}
	if !(p.Volatility > 0) || !isFinite(p.Volatility) {
		return fmt.Errorf("%w: volatility is %v", ErrDegenerateVolatility, p.Volatility)
	}
	if !(p.Horizon > 0) || !isFinite(p.Horizon) {
		return fmt.Errorf("%w: horizon is %v", ErrInvalidInput, p.Horizon)
	}
	if !isFinite(p.Drift) {
		return fmt.Errorf("%w: drift is %v", ErrInvalidInput, p.Drift)
	}
	return nil
}
