package service

import (
	"context"
	"errors"

	"CreditRisk/internal/domain/models"
)

// ErrSnapshotNotFound is returned when a provider has no data for a ticker.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotProvider supplies a FinancialSnapshot for a company identifier.
// Mapping raw provider fields onto the snapshot is the provider's job.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, ticker string) (models.FinancialSnapshot, error)
}
