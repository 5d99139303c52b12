package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidSnapshot is returned by FinancialSnapshot.Validate.
var ErrInvalidSnapshot = errors.New("invalid financial snapshot")

// FinancialSnapshot is one company's balance sheet, income statement and market data
// for a single reporting period, as supplied by a data provider.
// All amounts share the same currency and period.
type FinancialSnapshot struct {
	Ticker              string  `json:"ticker"`
	TotalAssets         float64 `json:"total_assets"`
	TotalLiabilities    float64 `json:"total_liabilities"`
	CurrentLiabilities  float64 `json:"current_liabilities"`
	NonCurrentAssets    float64 `json:"non_current_assets"`
	RetainedEarnings    float64 `json:"retained_earnings"`
	EBIT                float64 `json:"ebit"`
	TotalRevenue        float64 `json:"total_revenue"`
	MarketValueOfEquity float64 `json:"market_value_of_equity"` // stockholders' equity
	CurrentDebt         float64 `json:"current_debt"`
	LongTermDebt        float64 `json:"long_term_debt"`

	// HistoricalTotalAssets is ordered oldest -> newest.
	HistoricalTotalAssets []float64 `json:"historical_total_assets"`
}

// WorkingCapital returns current assets minus current liabilities, where current
// assets are total assets less non-current assets.
func (s FinancialSnapshot) WorkingCapital() float64 {
	currentAssets := s.TotalAssets - s.NonCurrentAssets
	return currentAssets - s.CurrentLiabilities
}

// DefaultPoint is current liabilities plus half of the long-term liabilities.
func (s FinancialSnapshot) DefaultPoint() float64 {
	longTerm := s.TotalLiabilities - s.CurrentLiabilities
	return s.CurrentLiabilities + 0.5*longTerm
}

// Validate checks the invariants every calculator relies on.
func (s FinancialSnapshot) Validate() error {
	if strings.TrimSpace(s.Ticker) == "" {
		return fmt.Errorf("%w: ticker is empty", ErrInvalidSnapshot)
	}
	scalars := []struct {
		name string
		v    float64
	}{
		{"total_assets", s.TotalAssets},
		{"total_liabilities", s.TotalLiabilities},
		{"current_liabilities", s.CurrentLiabilities},
		{"non_current_assets", s.NonCurrentAssets},
		{"retained_earnings", s.RetainedEarnings},
		{"ebit", s.EBIT},
		{"total_revenue", s.TotalRevenue},
		{"market_value_of_equity", s.MarketValueOfEquity},
		{"current_debt", s.CurrentDebt},
		{"long_term_debt", s.LongTermDebt},
	}
	for _, f := range scalars {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSnapshot, f.name)
		}
	}
	if s.TotalAssets <= 0 {
		return fmt.Errorf("%w: total_assets must be positive", ErrInvalidSnapshot)
	}
	if s.TotalLiabilities <= 0 {
		return fmt.Errorf("%w: total_liabilities must be positive", ErrInvalidSnapshot)
	}
	if len(s.HistoricalTotalAssets) < 2 {
		return fmt.Errorf("%w: historical_total_assets needs at least 2 values, got %d",
			ErrInvalidSnapshot, len(s.HistoricalTotalAssets))
	}
	for i, v := range s.HistoricalTotalAssets {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: historical_total_assets[%d]=%v must be positive", ErrInvalidSnapshot, i, v)
		}
	}
	return nil
}

// AssetDynamics holds log-return statistics of the total-asset history.
type AssetDynamics struct {
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
}

// SolverResult is produced once per solve and never modified afterwards.
type SolverResult struct {
	ImpliedAssetValue float64 `json:"implied_asset_value"`
	Iterations        int     `json:"iterations"`
	Converged         bool    `json:"converged"`
}
