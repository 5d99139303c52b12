package models

import (
	"fmt"
	"time"
)

// Decision is the binary credit outcome.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionDenied   Decision = "DENIED"
)

// Zone classifies a Z-Score against the distress/safe thresholds.
type Zone string

const (
	ZoneDistress Zone = "distress"
	ZoneGrey     Zone = "grey"
	ZoneSafe     Zone = "safe"
)

// CreditDecision keeps the inputs that produced the decision for auditability.
type CreditDecision struct {
	Decision           Decision `json:"decision"`
	ZScore             float64  `json:"z_score"`
	DefaultProbability float64  `json:"default_probability"`
}

// ZScoreComponents exposes the five Altman ratios alongside the score.
type ZScoreComponents struct {
	X1    float64 `json:"x1_working_capital"`
	X2    float64 `json:"x2_retained_earnings"`
	X3    float64 `json:"x3_ebit"`
	X4    float64 `json:"x4_equity_to_liabilities"`
	X5    float64 `json:"x5_sales"`
	Score float64 `json:"score"`
}

// Assessment is the full result of analyzing one company.
type Assessment struct {
	ID                 string           `json:"id"`
	Ticker             string           `json:"ticker"`
	ZScore             ZScoreComponents `json:"z_score"`
	Zone               Zone             `json:"zone"`
	DefaultPoint       float64          `json:"default_point"`
	Dynamics           AssetDynamics    `json:"dynamics"`
	Solver             SolverResult     `json:"solver"`
	DefaultProbability float64          `json:"default_probability"`
	Decision           CreditDecision   `json:"decision"`
	EvaluatedAt        time.Time        `json:"evaluated_at"`
}

// Analysis stages a CompanyFailure can originate from.
const (
	StageSnapshot    = "snapshot"
	StageProvider    = "provider"
	StageZScore      = "zscore"
	StageDynamics    = "dynamics"
	StageSolver      = "solver"
	StageProbability = "probability"
	StageDecision    = "decision"
	StageCanceled    = "canceled"
)

// CompanyFailure wraps any analysis error for a single ticker so that the
// remaining companies of a batch can still be evaluated.
type CompanyFailure struct {
	Ticker string `json:"ticker"`
	Stage  string `json:"stage"`
	Err    error  `json:"-"`
}

func (f *CompanyFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Ticker, f.Stage, f.Err)
}

func (f *CompanyFailure) Unwrap() error { return f.Err }

// CompanyResult carries exactly one of Assessment or Failure.
type CompanyResult struct {
	Assessment *Assessment      `json:"assessment,omitempty"`
	Failure    *CompanyFailure  `json:"-"`
	Error      *FailureResponse `json:"error,omitempty"`
}

// FailureResponse is the transport view of a CompanyFailure.
type FailureResponse struct {
	Code    string `json:"code"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// PortfolioReport maps every requested ticker to its result.
// Tickers preserves the request order.
type PortfolioReport struct {
	Tickers     []string                 `json:"tickers"`
	Results     map[string]CompanyResult `json:"results"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Failures returns the failures of the report in ticker order.
func (r *PortfolioReport) Failures() []*CompanyFailure {
	out := make([]*CompanyFailure, 0)
	for _, t := range r.Tickers {
		if res, ok := r.Results[t]; ok && res.Failure != nil {
			out = append(out, res.Failure)
		}
	}
	return out
}
