package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"CreditRisk/internal/domain/models"
	drepo "CreditRisk/internal/domain/repository"
	"CreditRisk/internal/domain/service"
	applogger "CreditRisk/pkg/logger"
)

const snapshotColumns = "ticker, total_assets, total_liabilities, current_liabilities, non_current_assets, " +
	"retained_earnings, ebit, total_revenue, market_value_of_equity, current_debt, long_term_debt, " +
	"historical_total_assets, ingested_at"

// CHSnapshotStore keeps financial snapshots in ClickHouse and serves the most
// recently ingested one per ticker.
type CHSnapshotStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var (
	_ drepo.SnapshotStore      = (*CHSnapshotStore)(nil)
	_ service.SnapshotProvider = (*CHSnapshotStore)(nil)
)

func NewCHSnapshotStore(db *sql.DB, table string, l *applogger.Logger) *CHSnapshotStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHSnapshotStore{db: db, table: table, l: l, now: time.Now}
}

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SnapshotTableDDL(s.table)); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// SaveSnapshots validates every snapshot before inserting any of them.
func (s *CHSnapshotStore) SaveSnapshots(ctx context.Context, snapshots []models.FinancialSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if err := snap.Validate(); err != nil {
			return err
		}
	}
	at := s.now().UTC()
	for start := 0; start < len(snapshots); start += insertChunk {
		end := min(start+insertChunk, len(snapshots))
		q, args := snapshotInsert(s.table, snapshots[start:end], at)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse snapshot insert",
				applogger.String("table", s.table),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert snapshots: %w", err)
		}
	}
	return nil
}

func snapshotInsert(table string, snapshots []models.FinancialSnapshot, at time.Time) (string, []interface{}) {
	const placeholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	values := make([]string, len(snapshots))
	args := make([]interface{}, 0, len(snapshots)*13)
	for i, snap := range snapshots {
		values[i] = placeholders
		args = append(args,
			snap.Ticker, snap.TotalAssets, snap.TotalLiabilities, snap.CurrentLiabilities,
			snap.NonCurrentAssets, snap.RetainedEarnings, snap.EBIT, snap.TotalRevenue,
			snap.MarketValueOfEquity, snap.CurrentDebt, snap.LongTermDebt,
			snap.HistoricalTotalAssets, at,
		)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, snapshotColumns, strings.Join(values, ",")), args
}

// Snapshot returns the latest snapshot for ticker or service.ErrSnapshotNotFound.
func (s *CHSnapshotStore) Snapshot(ctx context.Context, ticker string) (models.FinancialSnapshot, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ticker = ? ORDER BY ingested_at DESC LIMIT 1", snapshotColumns, s.table)

	var (
		snap models.FinancialSnapshot
		at   time.Time
	)
	err := s.db.QueryRowContext(ctx, q, ticker).Scan(
		&snap.Ticker, &snap.TotalAssets, &snap.TotalLiabilities, &snap.CurrentLiabilities,
		&snap.NonCurrentAssets, &snap.RetainedEarnings, &snap.EBIT, &snap.TotalRevenue,
		&snap.MarketValueOfEquity, &snap.CurrentDebt, &snap.LongTermDebt,
		&snap.HistoricalTotalAssets, &at,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FinancialSnapshot{}, fmt.Errorf("%w: %s", service.ErrSnapshotNotFound, ticker)
	}
	if err != nil {
		s.l.Error("clickhouse snapshot query",
			applogger.String("table", s.table),
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
		return models.FinancialSnapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	s.l.Debug("clickhouse snapshot ok",
		applogger.String("ticker", ticker),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return snap, nil
}
