package credit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "ERR_NUMERICAL_DIVERGENCE", ErrorCode(&DivergenceError{Iteration: 2, Reason: "x"}))
	assert.Equal(t, "ERR_NOT_CONVERGED", ErrorCode(fmt.Errorf("%w after 100 iterations", ErrNotConverged)))
	assert.Equal(t, "ERR_DIVISION_UNDEFINED", ErrorCode(ErrDivisionUndefined))
	assert.Empty(t, ErrorCode(errors.New("other")))
	assert.Empty(t, ErrorCode(nil))
}
