package credit

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionUndefined is returned when a ratio has a zero denominator
	// or evaluates to a non-finite value.
	ErrDivisionUndefined = errors.New("division undefined")
	// ErrInsufficientHistory means fewer than two asset values were supplied.
	ErrInsufficientHistory = errors.New("insufficient asset history")
	// ErrInvalidHistory means the asset history holds a non-positive or non-finite value.
	ErrInvalidHistory = errors.New("invalid asset history")
	// ErrDegenerateVolatility means asset volatility is zero or undefined.
	ErrDegenerateVolatility = errors.New("degenerate asset volatility")
	ErrInvalidDefaultPoint  = errors.New("invalid default point")
	// ErrNumericalDivergence means the solver left the valid numeric domain.
	ErrNumericalDivergence = errors.New("numerical divergence")
	// ErrNotConverged is used by callers that require a converged solve.
	ErrNotConverged = errors.New("solver did not converge")
	ErrInvalidInput = errors.New("invalid input")
)

// DivergenceError describes where the solver left the valid domain.
type DivergenceError struct {
	Iteration int
	Value     float64
	Reason    string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%v at iteration %d: %s (value=%g)", ErrNumericalDivergence, e.Iteration, e.Reason, e.Value)
}

func (e *DivergenceError) Unwrap() error { return ErrNumericalDivergence }

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrDivisionUndefined, "ERR_DIVISION_UNDEFINED"},
	{ErrInsufficientHistory, "ERR_INSUFFICIENT_HISTORY"},
	{ErrInvalidHistory, "ERR_INVALID_HISTORY"},
	{ErrDegenerateVolatility, "ERR_DEGENERATE_VOLATILITY"},
	{ErrInvalidDefaultPoint, "ERR_INVALID_DEFAULT_POINT"},
	{ErrNumericalDivergence, "ERR_NUMERICAL_DIVERGENCE"},
	{ErrNotConverged, "ERR_NOT_CONVERGED"},
	{ErrInvalidInput, "ERR_INVALID_INPUT"},
}

// ErrorCode maps a model error to a stable machine-readable code, or "" when
// err carries none of the package sentinels.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}
