package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CreditRisk/internal/domain/models"
	domsvc "CreditRisk/internal/domain/service"
)

// ErrNoTickers is returned when a lookup names no company.
var ErrNoTickers = errors.New("at least one ticker is required")

// CreditAssessmentUseCase pulls snapshots from a provider and analyzes them.
type CreditAssessmentUseCase struct {
	analyzer *CreditAnalyzer
	provider domsvc.SnapshotProvider
	timeout  time.Duration
}

func NewCreditAssessmentUseCase(analyzer *CreditAnalyzer, provider domsvc.SnapshotProvider, timeout time.Duration) *CreditAssessmentUseCase {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CreditAssessmentUseCase{analyzer: analyzer, provider: provider, timeout: timeout}
}

// AssessTickers fetches and analyzes every ticker. Provider failures are
// reported per company with the provider stage.
func (uc *CreditAssessmentUseCase) AssessTickers(ctx context.Context, tickers []string) (*models.PortfolioReport, error) {
	tickers = dedupe(tickers)
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}
	if uc.provider == nil {
		return nil, fmt.Errorf("snapshot provider not configured")
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	a := uc.analyzer
	return a.collect(ctx, tickers, func(ctx context.Context, ticker string) models.CompanyResult {
		s, err := uc.provider.Snapshot(ctx, ticker)
		if err != nil {
			return failureResult(a.fail(ticker, models.StageProvider, err))
		}
		// the provider may return a differently-cased ticker
		s.Ticker = ticker
		return a.result(ctx, s)
	}), nil
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
