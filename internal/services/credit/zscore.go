package credit

import (
	"fmt"
	"math"

	"CreditRisk/internal/domain/models"
)

// Altman Z-Score (manufacturing) coefficients.
const (
	coefWorkingCapital   = 1.2
	coefRetainedEarnings = 1.4
	coefEBIT             = 3.3
	coefEquity           = 0.6
	coefSales            = 1.0
)

// ZScore computes the Altman Z-Score of the snapshot.
func ZScore(s models.FinancialSnapshot) (float64, error) {
	c, err := ZScoreBreakdown(s)
	if err != nil {
		return 0, err
	}
	return c.Score, nil
}

// ZScoreBreakdown returns the five Altman ratios and the resulting score:
//
//	X1 = working capital / total assets
//	X2 = retained earnings / total assets
//	X3 = EBIT / total assets
//	X4 = market value of equity / total liabilities
//	X5 = sales / total assets
//	Z  = 1.2*X1 + 1.4*X2 + 3.3*X3 + 0.6*X4 + 1.0*X5
func ZScoreBreakdown(s models.FinancialSnapshot) (models.ZScoreComponents, error) {
	ta := s.TotalAssets
	tl := s.TotalLiabilities
	if ta == 0 {
		return models.ZScoreComponents{}, fmt.Errorf("%w: total assets is zero", ErrDivisionUndefined)
	}
	if tl == 0 {
		return models.ZScoreComponents{}, fmt.Errorf("%w: total liabilities is zero", ErrDivisionUndefined)
	}

	c := models.ZScoreComponents{
		X1: s.WorkingCapital() / ta,
		X2: s.RetainedEarnings / ta,
		X3: s.EBIT / ta,
		X4: s.MarketValueOfEquity / tl,
		X5: s.TotalRevenue / ta,
	}
	c.Score = coefWorkingCapital*c.X1 +
		coefRetainedEarnings*c.X2 +
		coefEBIT*c.X3 +
		coefEquity*c.X4 +
		coefSales*c.X5

	for _, v := range []float64{c.X1, c.X2, c.X3, c.X4, c.X5, c.Score} {
		if !isFinite(v) {
			return models.ZScoreComponents{}, fmt.Errorf("%w: non-finite ratio for %q", ErrDivisionUndefined, s.Ticker)
		}
	}
	return c, nil
}

// ClassifyZone places a score in the distress, grey or safe zone.
func ClassifyZone(z float64, t Thresholds) models.Zone {
	switch {
	case z <= t.ZDistress:
		return models.ZoneDistress
	case z > t.ZSafe:
		return models.ZoneSafe
	default:
		return models.ZoneGrey
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
