package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CreditRisk/internal/domain/models"
	drepo "CreditRisk/internal/domain/repository"
	domsvc "CreditRisk/internal/domain/service"
)

type fakeMetrics struct {
	mu         sync.Mutex
	decisions  map[string]int
	failures   map[string]int
	sent       int
	errs       map[string]int
	iterations []int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{decisions: map[string]int{}, failures: map[string]int{}, errs: map[string]int{}}
}

func (m *fakeMetrics) RecordDecision(d string) { m.mu.Lock(); m.decisions[d]++; m.mu.Unlock() }
func (m *fakeMetrics) RecordFailure(s string)  { m.mu.Lock(); m.failures[s]++; m.mu.Unlock() }
func (m *fakeMetrics) RecordSolverIterations(n int, _ bool) {
	m.mu.Lock()
	m.iterations = append(m.iterations, n)
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordMessageSent(string, string) { m.mu.Lock(); m.sent++; m.mu.Unlock() }
func (m *fakeMetrics) RecordError(k string)             { m.mu.Lock(); m.errs[k]++; m.mu.Unlock() }
func (m *fakeMetrics) RecordLatency(string, float64)    {}

var _ drepo.Metrics = (*fakeMetrics)(nil)

type fakePublisher struct {
	mu      sync.Mutex
	records []*models.AssessmentRecord
	batches int
	err     error
	closed  bool
}

func (p *fakePublisher) Publish(_ context.Context, r *models.AssessmentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, r)
	return nil
}

func (p *fakePublisher) PublishBatch(_ context.Context, rs []*models.AssessmentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches++
	p.records = append(p.records, rs...)
	return nil
}

func (p *fakePublisher) Close() error { p.closed = true; return nil }

var _ drepo.Publisher = (*fakePublisher)(nil)

type fakeStorage struct {
	mu      sync.Mutex
	records []*models.AssessmentRecord
}

func (s *fakeStorage) Init(context.Context) error { return nil }
func (s *fakeStorage) Store(_ context.Context, r *models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}
func (s *fakeStorage) StoreBatch(_ context.Context, rs []*models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rs...)
	return nil
}
func (s *fakeStorage) Query(context.Context, string, time.Time, time.Time, int) ([]*models.AssessmentRecord, error) {
	return s.records, nil
}
func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { return nil }

var _ drepo.Storage = (*fakeStorage)(nil)

type fakeProvider struct {
	snapshots map[string]models.FinancialSnapshot
}

func (p fakeProvider) Snapshot(_ context.Context, ticker string) (models.FinancialSnapshot, error) {
	s, ok := p.snapshots[ticker]
	if !ok {
		return models.FinancialSnapshot{}, errors.Join(domsvc.ErrSnapshotNotFound, errors.New(ticker))
	}
	return s, nil
}

var _ domsvc.SnapshotProvider = fakeProvider{}

// healthy: Z = 3.885 (safe), PD ~ 0.
func healthySnapshot() models.FinancialSnapshot {
	return models.FinancialSnapshot{
		Ticker:                "SAFE",
		TotalAssets:           1000,
		TotalLiabilities:      400,
		CurrentLiabilities:    150,
		NonCurrentAssets:      500,
		RetainedEarnings:      300,
		EBIT:                  150,
		TotalRevenue:          1200,
		MarketValueOfEquity:   900,
		HistoricalTotalAssets: []float64{800, 850, 940, 960, 1000},
	}
}

// distressed: Z ~ -0.587, PD ~ 0.247.
func distressedSnapshot() models.FinancialSnapshot {
	return models.FinancialSnapshot{
		Ticker:                "WEAK",
		TotalAssets:           1000,
		TotalLiabilities:      950,
		CurrentLiabilities:    600,
		NonCurrentAssets:      800,
		RetainedEarnings:      -200,
		EBIT:                  -50,
		TotalRevenue:          300,
		MarketValueOfEquity:   60,
		HistoricalTotalAssets: []float64{1200, 1100, 1150, 1000, 1000},
	}
}

// grey: Z = 2.184, PD ~ 0.
func greySnapshot() models.FinancialSnapshot {
	return models.FinancialSnapshot{
		Ticker:                "GREY",
		TotalAssets:           1000,
		TotalLiabilities:      600,
		CurrentLiabilities:    250,
		NonCurrentAssets:      550,
		RetainedEarnings:      200,
		EBIT:                  80,
		TotalRevenue:          900,
		MarketValueOfEquity:   500,
		HistoricalTotalAssets: []float64{900, 980, 940, 1010, 1000},
	}
}
