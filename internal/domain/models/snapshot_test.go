package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() FinancialSnapshot {
	return FinancialSnapshot{
		Ticker:                "ACME",
		TotalAssets:           1000,
		TotalLiabilities:      600,
		CurrentLiabilities:    200,
		NonCurrentAssets:      700,
		RetainedEarnings:      150,
		EBIT:                  90,
		TotalRevenue:          800,
		MarketValueOfEquity:   400,
		HistoricalTotalAssets: []float64{900, 950, 980, 1000},
	}
}

func TestDerivedQuantities(t *testing.T) {
	s := sampleSnapshot()
	assert.Equal(t, 100.0, s.WorkingCapital())
	assert.Equal(t, 400.0, s.DefaultPoint())
}

func TestSnapshotValidate(t *testing.T) {
	require.NoError(t, sampleSnapshot().Validate())

	tests := []struct {
		name   string
		mutate func(*FinancialSnapshot)
	}{
		{"empty ticker", func(s *FinancialSnapshot) { s.Ticker = " " }},
		{"zero assets", func(s *FinancialSnapshot) { s.TotalAssets = 0 }},
		{"negative liabilities", func(s *FinancialSnapshot) { s.TotalLiabilities = -1 }},
		{"nan ebit", func(s *FinancialSnapshot) { s.EBIT = math.NaN() }},
		{"short history", func(s *FinancialSnapshot) { s.HistoricalTotalAssets = []float64{1000} }},
		{"non-positive history", func(s *FinancialSnapshot) { s.HistoricalTotalAssets = []float64{900, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSnapshot()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)
		})
	}
}

func TestPortfolioReportFailuresOrdered(t *testing.T) {
	boom := errors.New("boom")
	r := &PortfolioReport{
		Tickers: []string{"B", "A", "C"},
		Results: map[string]CompanyResult{
			"A": {Failure: &CompanyFailure{Ticker: "A", Stage: StageSolver, Err: boom}},
			"B": {Failure: &CompanyFailure{Ticker: "B", Stage: StageZScore, Err: boom}},
			"C": {Assessment: &Assessment{Ticker: "C"}},
		},
	}
	got := r.Failures()
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Ticker)
	assert.Equal(t, "A", got[1].Ticker)
	assert.ErrorIs(t, got[0], boom)
	assert.Equal(t, "B: zscore: boom", got[0].Error())
}

func TestFailureRecord(t *testing.T) {
	f := &CompanyFailure{Ticker: "X", Stage: StageDynamics, Err: errors.New("flat")}
	rec := NewFailureRecord("id-1", "ERR_DEGENERATE_VOLATILITY", f, sampleTime)
	assert.Equal(t, RecordStatusFailed, rec.Status)
	assert.Equal(t, StageDynamics, rec.FailureStage)
	assert.Equal(t, "ERR_DEGENERATE_VOLATILITY", rec.FailureCode)
	assert.Equal(t, "flat", rec.FailureMessage)
	assert.Empty(t, rec.Decision)
}

var sampleTime = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
