package credit

import (
	"math"
	"testing"

	"CreditRisk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitSnapshot has TA = TL = 1 and every Altman numerator equal to 0.2.
func unitSnapshot() models.FinancialSnapshot {
	return models.FinancialSnapshot{
		Ticker:                "UNIT",
		TotalAssets:           1,
		TotalLiabilities:      1,
		CurrentLiabilities:    0.3,
		NonCurrentAssets:      0.5,
		RetainedEarnings:      0.2,
		EBIT:                  0.2,
		TotalRevenue:          0.2,
		MarketValueOfEquity:   0.2,
		HistoricalTotalAssets: []float64{0.9, 1},
	}
}

func TestZScoreUnitFixture(t *testing.T) {
	z, err := ZScore(unitSnapshot())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, z, 1e-12)
}

func TestZScoreBreakdown(t *testing.T) {
	c, err := ZScoreBreakdown(unitSnapshot())
	require.NoError(t, err)

	for _, x := range []float64{c.X1, c.X2, c.X3, c.X4, c.X5} {
		assert.InDelta(t, 0.2, x, 1e-12)
	}
	assert.InDelta(t, 1.2*c.X1+1.4*c.X2+3.3*c.X3+0.6*c.X4+1.0*c.X5, c.Score, 1e-12)
}

func TestZScoreUndefinedRatios(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.FinancialSnapshot)
	}{
		{"zero total assets", func(s *models.FinancialSnapshot) { s.TotalAssets = 0 }},
		{"zero total liabilities", func(s *models.FinancialSnapshot) { s.TotalLiabilities = 0 }},
		{"nan ebit", func(s *models.FinancialSnapshot) { s.EBIT = math.NaN() }},
		{"infinite equity", func(s *models.FinancialSnapshot) { s.MarketValueOfEquity = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := unitSnapshot()
			tt.mutate(&s)
			_, err := ZScore(s)
			require.ErrorIs(t, err, ErrDivisionUndefined)
		})
	}
}

func TestClassifyZone(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, models.ZoneDistress, ClassifyZone(1.2, th))
	assert.Equal(t, models.ZoneDistress, ClassifyZone(1.8, th))
	assert.Equal(t, models.ZoneGrey, ClassifyZone(2.5, th))
	assert.Equal(t, models.ZoneGrey, ClassifyZone(3.0, th))
	assert.Equal(t, models.ZoneSafe, ClassifyZone(3.01, th))
}
