package repository

import (
	"context"
	"time"

	"CreditRisk/internal/domain/models"
)

// SnapshotStore keeps financial snapshots and serves the latest one per
// ticker.
type SnapshotStore interface {
	SaveSnapshots(ctx context.Context, snapshots []models.FinancialSnapshot) error
	Snapshot(ctx context.Context, ticker string) (models.FinancialSnapshot, error)
}

type Publisher interface {
	Publish(ctx context.Context, r *models.AssessmentRecord) error
	PublishBatch(ctx context.Context, records []*models.AssessmentRecord) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.AssessmentRecord) error
	StoreBatch(ctx context.Context, records []*models.AssessmentRecord) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.AssessmentRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordDecision(decision string)
	RecordFailure(stage string)
	RecordSolverIterations(iterations int, converged bool)
	RecordMessageSent(backend, ticker string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
