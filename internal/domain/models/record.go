package models

import "time"

// Record statuses.
const (
	RecordStatusAssessed = "assessed"
	RecordStatusFailed   = "failed"
)

// AssessmentRecord is the flat form of a CompanyResult that is published to
// Kafka and stored in ClickHouse. Failed analyses are kept as records too.
type AssessmentRecord struct {
	ID                 string    `json:"id"`
	Ticker             string    `json:"ticker"`
	Status             string    `json:"status"`
	Decision           Decision  `json:"decision,omitempty"`
	ZScore             float64   `json:"z_score"`
	Zone               Zone      `json:"zone,omitempty"`
	DefaultProbability float64   `json:"default_probability"`
	DefaultPoint       float64   `json:"default_point"`
	ImpliedAssetValue  float64   `json:"implied_asset_value"`
	Drift              float64   `json:"drift"`
	Volatility         float64   `json:"volatility"`
	Iterations         int       `json:"iterations"`
	Converged          bool      `json:"converged"`
	FailureStage       string    `json:"failure_stage,omitempty"`
	FailureCode        string    `json:"failure_code,omitempty"`
	FailureMessage     string    `json:"failure_message,omitempty"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}

// NewAssessmentRecord flattens a successful assessment.
func NewAssessmentRecord(a *Assessment) *AssessmentRecord {
	return &AssessmentRecord{
		ID:                 a.ID,
		Ticker:             a.Ticker,
		Status:             RecordStatusAssessed,
		Decision:           a.Decision.Decision,
		ZScore:             a.ZScore.Score,
		Zone:               a.Zone,
		DefaultProbability: a.DefaultProbability,
		DefaultPoint:       a.DefaultPoint,
		ImpliedAssetValue:  a.Solver.ImpliedAssetValue,
		Drift:              a.Dynamics.Drift,
		Volatility:         a.Dynamics.Volatility,
		Iterations:         a.Solver.Iterations,
		Converged:          a.Solver.Converged,
		EvaluatedAt:        a.EvaluatedAt,
	}
}

// NewFailureRecord flattens a failed analysis. code is the same stable code
// the HTTP API reports for f.
func NewFailureRecord(id, code string, f *CompanyFailure, at time.Time) *AssessmentRecord {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return &AssessmentRecord{
		ID:             id,
		Ticker:         f.Ticker,
		Status:         RecordStatusFailed,
		FailureStage:   f.Stage,
		FailureCode:    code,
		FailureMessage: msg,
		EvaluatedAt:    at,
	}
}
