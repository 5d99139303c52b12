package usecase

import (
	"context"
	"fmt"
	"time"

	"CreditRisk/internal/domain/models"
	drepo "CreditRisk/internal/domain/repository"

	"github.com/google/uuid"
)

// AssessmentProcessor routes assessment records to the configured backend.
type AssessmentProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend drepo.Backend
	batchSz int
	now     func() time.Time
}

func NewAssessmentProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend drepo.Backend,
	batchSz int,
) *AssessmentProcessor {
	if batchSz <= 0 {
		batchSz = 100
	}
	return &AssessmentProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		now:     time.Now,
	}
}

// Backend reports where records go.
func (p *AssessmentProcessor) Backend() drepo.Backend { return p.backend }

// Record flattens a CompanyResult. Failures become failure records.
func (p *AssessmentProcessor) Record(ticker string, res models.CompanyResult) *models.AssessmentRecord {
	if res.Assessment != nil {
		return models.NewAssessmentRecord(res.Assessment)
	}
	f := res.Failure
	if f == nil {
		f = &models.CompanyFailure{Ticker: ticker, Stage: models.StageSnapshot, Err: fmt.Errorf("empty result")}
	}
	return models.NewFailureRecord(uuid.NewString(), FailureCode(f), f, p.now().UTC())
}

// Process routes a single record.
func (p *AssessmentProcessor) Process(ctx context.Context, r *models.AssessmentRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case drepo.BackendKafka:
		err = p.pub.Publish(ctx, r)
	case drepo.BackendClickHouse:
		err = p.store.Store(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process record %s: %w", r.Ticker, err)
	}

	p.metrics.RecordMessageSent(string(p.backend), r.Ticker)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes records in chunks of batchSz.
func (p *AssessmentProcessor) ProcessBatch(ctx context.Context, records []*models.AssessmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	for lo := 0; lo < len(records); lo += p.batchSz {
		chunk := records[lo:min(lo+p.batchSz, len(records))]

		var err error
		switch p.backend {
		case drepo.BackendKafka:
			err = p.pub.PublishBatch(ctx, chunk)
		case drepo.BackendClickHouse:
			err = p.store.StoreBatch(ctx, chunk)
		default:
			err = fmt.Errorf("unknown backend: %s", p.backend)
		}
		if err != nil {
			p.metrics.RecordError("process_batch")
			return fmt.Errorf("process batch: %w", err)
		}
		for _, r := range chunk {
			p.metrics.RecordMessageSent(string(p.backend), r.Ticker)
		}
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// ProcessReport routes every result of a portfolio report.
func (p *AssessmentProcessor) ProcessReport(ctx context.Context, report *models.PortfolioReport) error {
	records := make([]*models.AssessmentRecord, 0, len(report.Tickers))
	for _, t := range report.Tickers {
		records = append(records, p.Record(t, report.Results[t]))
	}
	return p.ProcessBatch(ctx, records)
}

// Close closes underlying resources if available.
func (p *AssessmentProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
