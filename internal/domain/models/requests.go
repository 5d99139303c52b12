package models

// Requests for credit HTTP endpoints. Defined in domain for consistency and reuse.

type SnapshotRequest struct {
	Ticker                string    `json:"ticker" validate:"required,max=16"`
	TotalAssets           float64   `json:"total_assets" validate:"gt=0"`
	TotalLiabilities      float64   `json:"total_liabilities" validate:"gt=0"`
	CurrentLiabilities    float64   `json:"current_liabilities" validate:"gte=0"`
	NonCurrentAssets      float64   `json:"non_current_assets" validate:"gte=0"`
	RetainedEarnings      float64   `json:"retained_earnings"`
	EBIT                  float64   `json:"ebit"`
	TotalRevenue          float64   `json:"total_revenue" validate:"gte=0"`
	MarketValueOfEquity   float64   `json:"market_value_of_equity"`
	CurrentDebt           float64   `json:"current_debt" validate:"gte=0"`
	LongTermDebt          float64   `json:"long_term_debt" validate:"gte=0"`
	HistoricalTotalAssets []float64 `json:"historical_total_assets" validate:"min=2,dive,gt=0"`
}

// ToSnapshot converts the request into the engine's value type.
func (r SnapshotRequest) ToSnapshot() FinancialSnapshot {
	history := make([]float64, len(r.HistoricalTotalAssets))
	copy(history, r.HistoricalTotalAssets)
	return FinancialSnapshot{
		Ticker:                r.Ticker,
		TotalAssets:           r.TotalAssets,
		TotalLiabilities:      r.TotalLiabilities,
		CurrentLiabilities:    r.CurrentLiabilities,
		NonCurrentAssets:      r.NonCurrentAssets,
		RetainedEarnings:      r.RetainedEarnings,
		EBIT:                  r.EBIT,
		TotalRevenue:          r.TotalRevenue,
		MarketValueOfEquity:   r.MarketValueOfEquity,
		CurrentDebt:           r.CurrentDebt,
		LongTermDebt:          r.LongTermDebt,
		HistoricalTotalAssets: history,
	}
}

type PortfolioRequest struct {
	Snapshots []SnapshotRequest `json:"snapshots" validate:"required,min=1,max=200,dive"`
}

type TickersRequest struct {
	Tickers string `query:"tickers" json:"tickers" validate:"required"`
}
