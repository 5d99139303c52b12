package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CreditRisk/internal/domain/models"
	domsvc "CreditRisk/internal/domain/service"
	drepo "CreditRisk/internal/domain/repository"
	"CreditRisk/internal/services/credit"
	applogger "CreditRisk/pkg/logger"
	"CreditRisk/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AnalyzerConfig holds the decision thresholds and solver policy.
type AnalyzerConfig struct {
	Thresholds         credit.Thresholds
	Horizon            float64
	Tolerance          float64
	MaxIterations      int
	ScaleTolerance     bool
	RequireConvergence bool
	Workers            int
}

// DefaultAnalyzerConfig mirrors the published defaults of the model. The
// convergence test is relative because statements arrive in currency units.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Thresholds:         credit.DefaultThresholds(),
		Horizon:            credit.DefaultHorizon,
		Tolerance:          credit.DefaultTolerance,
		MaxIterations:      credit.DefaultMaxIterations,
		ScaleTolerance:     true,
		RequireConvergence: true,
		Workers:            8,
	}
}

// CreditAnalyzer runs the Z-Score and Merton pipelines for one company or a
// whole portfolio. It is safe for concurrent use.
type CreditAnalyzer struct {
	cfg     AnalyzerConfig
	metrics drepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
	newID   func() string
}

type AnalyzerOption func(*CreditAnalyzer)

func WithAnalyzerMetrics(m drepo.Metrics) AnalyzerOption {
	return func(a *CreditAnalyzer) { a.metrics = m }
}

func WithAnalyzerLogger(l *applogger.Logger) AnalyzerOption {
	return func(a *CreditAnalyzer) { a.log = l }
}

func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *CreditAnalyzer) { a.now = now }
}

func NewCreditAnalyzer(cfg AnalyzerConfig, opts ...AnalyzerOption) (*CreditAnalyzer, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer thresholds: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	a := &CreditAnalyzer{
		cfg:     cfg,
		metrics: metrics.Nop{},
		log:     applogger.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Thresholds returns the thresholds decisions are made with.
func (a *CreditAnalyzer) Thresholds() credit.Thresholds { return a.cfg.Thresholds }

// Analyze evaluates one snapshot. Any failure is returned as *models.CompanyFailure.
func (a *CreditAnalyzer) Analyze(ctx context.Context, s models.FinancialSnapshot) (*models.Assessment, error) {
	start := time.Now()
	defer func() { a.metrics.RecordLatency("analyze", time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return nil, a.fail(s.Ticker, models.StageCanceled, err)
	}
	if err := s.Validate(); err != nil {
		return nil, a.fail(s.Ticker, models.StageSnapshot, err)
	}

	dp := s.DefaultPoint()
	var (
		zc   models.ZScoreComponents
		zErr error
		m    mertonOutcome
	)

	// the two legs are independent; join before deciding
	var g errgroup.Group
	g.Go(func() error {
		zc, zErr = credit.ZScoreBreakdown(s)
		if zErr != nil {
			zErr = a.fail(s.Ticker, models.StageZScore, zErr)
		}
		return zErr
	})
	g.Go(func() error {
		var err error
		m, err = a.merton(s, dp)
		return err
	})
	if err := g.Wait(); err != nil {
		// report the z-score failure first when both legs fail
		if zErr != nil {
			return nil, zErr
		}
		return nil, err
	}

	pd := m.pd
	solved := m.solved
	decision, err := credit.NewCreditDecision(zc.Score, pd, a.cfg.Thresholds)
	if err != nil {
		return nil, a.fail(s.Ticker, models.StageDecision, err)
	}
	a.metrics.RecordDecision(string(decision.Decision))

	out := &models.Assessment{
		ID:                 a.newID(),
		Ticker:             s.Ticker,
		ZScore:             zc,
		Zone:               credit.ClassifyZone(zc.Score, a.cfg.Thresholds),
		DefaultPoint:       dp,
		Dynamics:           m.dynamics,
		Solver:             solved,
		DefaultProbability: pd,
		Decision:           decision,
		EvaluatedAt:        a.now().UTC(),
	}
	a.log.Debug("company assessed",
		applogger.String("ticker", out.Ticker),
		applogger.Float("z_score", zc.Score),
		applogger.Float("default_probability", pd),
		applogger.String("decision", string(decision.Decision)),
		applogger.Int("iterations", solved.Iterations),
	)
	return out, nil
}

// AnalyzePortfolio evaluates every snapshot with at most cfg.Workers running
// at once. One company's failure never affects the others. Duplicate tickers
// are evaluated once, using the first snapshot.
func (a *CreditAnalyzer) AnalyzePortfolio(ctx context.Context, snapshots []models.FinancialSnapshot) *models.PortfolioReport {
	byTicker := make(map[string]models.FinancialSnapshot, len(snapshots))
	tickers := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		if _, dup := byTicker[s.Ticker]; dup {
			a.log.Warn("duplicate ticker in portfolio ignored", applogger.String("ticker", s.Ticker))
			continue
		}
		byTicker[s.Ticker] = s
		tickers = append(tickers, s.Ticker)
	}

	return a.collect(ctx, tickers, func(ctx context.Context, ticker string) models.CompanyResult {
		return a.result(ctx, byTicker[ticker])
	})
}

// collect runs job for every ticker with bounded concurrency and assembles
// the report in ticker order.
func (a *CreditAnalyzer) collect(ctx context.Context, tickers []string, job func(context.Context, string) models.CompanyResult) *models.PortfolioReport {
	start := time.Now()
	results := make([]models.CompanyResult, len(tickers))

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for i, t := range tickers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = failureResult(a.fail(t, models.StageCanceled, err))
				return nil
			}
			results[i] = job(ctx, t)
			return nil
		})
	}
	_ = g.Wait() // jobs never return errors

	report := &models.PortfolioReport{
		Tickers:     tickers,
		Results:     make(map[string]models.CompanyResult, len(tickers)),
		GeneratedAt: a.now().UTC(),
	}
	for i, t := range tickers {
		report.Results[t] = results[i]
	}
	a.metrics.RecordLatency("analyze_portfolio", time.Since(start).Seconds())
	a.log.Info("portfolio analyzed",
		applogger.Int("companies", len(tickers)),
		applogger.Int("failures", len(report.Failures())),
		applogger.Duration("elapsed_ms", time.Since(start)),
	)
	return report
}

type mertonOutcome struct {
	dynamics models.AssetDynamics
	solved   models.SolverResult
	pd       float64
}

// merton runs dynamics estimation, the asset value solve and the default
// probability in sequence.
func (a *CreditAnalyzer) merton(s models.FinancialSnapshot, dp float64) (mertonOutcome, error) {
	var out mertonOutcome
	dyn, err := credit.EstimateDynamics(s.HistoricalTotalAssets)
	if err != nil {
		return out, a.fail(s.Ticker, models.StageDynamics, err)
	}
	out.dynamics = dyn

	p := a.solverParams(dyn, s.TotalAssets)
	solved, err := credit.SolveAssetValue(s.MarketValueOfEquity, dp, p)
	if err != nil {
		return out, a.fail(s.Ticker, models.StageSolver, err)
	}
	a.metrics.RecordSolverIterations(solved.Iterations, solved.Converged)
	if !solved.Converged && a.cfg.RequireConvergence {
		return out, a.fail(s.Ticker, models.StageSolver,
			fmt.Errorf("%w after %d iterations", credit.ErrNotConverged, solved.Iterations))
	}
	out.solved = solved

	pd, err := credit.DefaultProbability(solved, dp, p)
	if err != nil {
		return out, a.fail(s.Ticker, models.StageProbability, err)
	}
	out.pd = pd
	return out, nil
}

func (a *CreditAnalyzer) solverParams(d models.AssetDynamics, initialGuess float64) credit.SolverParams {
	return credit.NewSolverParams(d, initialGuess,
		credit.WithHorizon(a.cfg.Horizon),
		credit.WithTolerance(a.cfg.Tolerance),
		credit.WithMaxIterations(a.cfg.MaxIterations),
		credit.WithScaledTolerance(a.cfg.ScaleTolerance),
	)
}

func (a *CreditAnalyzer) fail(ticker, stage string, err error) *models.CompanyFailure {
	var cf *models.CompanyFailure
	if errors.As(err, &cf) {
		return cf
	}
	a.metrics.RecordFailure(stage)
	a.log.Warn("company analysis failed",
		applogger.String("ticker", ticker),
		applogger.String("stage", stage),
		applogger.Error(err),
	)
	return &models.CompanyFailure{Ticker: ticker, Stage: stage, Err: err}
}

// result analyzes s and wraps the outcome as a CompanyResult.
func (a *CreditAnalyzer) result(ctx context.Context, s models.FinancialSnapshot) models.CompanyResult {
	out, err := a.Analyze(ctx, s)
	if err != nil {
		var cf *models.CompanyFailure
		if !errors.As(err, &cf) {
			cf = &models.CompanyFailure{Ticker: s.Ticker, Stage: models.StageSnapshot, Err: err}
		}
		return failureResult(cf)
	}
	return models.CompanyResult{Assessment: out}
}

func failureResult(f *models.CompanyFailure) models.CompanyResult {
	return models.CompanyResult{
		Failure: f,
		Error:   &models.FailureResponse{Code: FailureCode(f), Stage: f.Stage, Message: f.Err.Error()},
	}
}

// FailureCode classifies a failure for API clients.
func FailureCode(f *models.CompanyFailure) string {
	switch {
	case f.Stage == models.StageCanceled:
		return "ERR_CANCELED"
	case errors.Is(f.Err, domsvc.ErrSnapshotNotFound):
		return "ERR_NOT_FOUND"
	case f.Stage == models.StageProvider:
		return "ERR_PROVIDER"
	case errors.Is(f.Err, models.ErrInvalidSnapshot):
		return "ERR_INVALID_SNAPSHOT"
	}
	if code := credit.ErrorCode(f.Err); code != "" {
		return code
	}
	return "ERR_ANALYSIS"
}
