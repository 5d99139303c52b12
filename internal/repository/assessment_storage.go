package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CreditRisk/internal/domain/models"
	drepo "CreditRisk/internal/domain/repository"
)

const assessmentColumns = "id, ticker, status, decision, z_score, zone, default_probability, default_point, " +
	"implied_asset_value, drift, volatility, iterations, converged, failure_stage, failure_code, failure_message, evaluated_at"

// rows per multi-row INSERT
const insertChunk = 2000

// ClickHouseStorage keeps assessment records in ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

var _ drepo.Storage = (*ClickHouseStorage)(nil)

func NewClickHouseStorage(db *sql.DB, table string) *ClickHouseStorage {
	return &ClickHouseStorage{db: db, table: table}
}

// Init creates the table when missing.
func (s *ClickHouseStorage) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, AssessmentTableDDL(s.table)); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.AssessmentRecord) error {
	return s.StoreBatch(ctx, []*models.AssessmentRecord{r})
}

// StoreBatch inserts records in chunks with multi-row VALUES. Nil records and
// records without a ticker are skipped.
func (s *ClickHouseStorage) StoreBatch(ctx context.Context, records []*models.AssessmentRecord) error {
	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		q, args := assessmentInsert(s.table, records[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert assessments: %w", err)
		}
	}
	return nil
}

func assessmentInsert(table string, records []*models.AssessmentRecord) (string, []interface{}) {
	const placeholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*17)
	for _, r := range records {
		if r == nil || r.Ticker == "" {
			continue
		}
		converged := uint8(0)
		if r.Converged {
			converged = 1
		}
		values = append(values, placeholders)
		args = append(args,
			r.ID, r.Ticker, r.Status, string(r.Decision), r.ZScore, string(r.Zone),
			r.DefaultProbability, r.DefaultPoint, r.ImpliedAssetValue, r.Drift, r.Volatility,
			uint32(r.Iterations), converged, r.FailureStage, r.FailureCode, r.FailureMessage, r.EvaluatedAt.UTC(),
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, assessmentColumns, strings.Join(values, ",")), args
}

// Query returns a ticker's records evaluated within [from, to], newest first.
func (s *ClickHouseStorage) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.AssessmentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ticker = ? AND evaluated_at >= ? AND evaluated_at <= ? ORDER BY evaluated_at DESC LIMIT ?",
		assessmentColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []*models.AssessmentRecord
	for rows.Next() {
		var (
			r          models.AssessmentRecord
			decision   string
			zone       string
			iterations uint32
			converged  uint8
		)
		if err := rows.Scan(&r.ID, &r.Ticker, &r.Status, &decision, &r.ZScore, &zone,
			&r.DefaultProbability, &r.DefaultPoint, &r.ImpliedAssetValue, &r.Drift, &r.Volatility,
			&iterations, &converged, &r.FailureStage, &r.FailureCode, &r.FailureMessage, &r.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		r.Decision = models.Decision(decision)
		r.Zone = models.Zone(zone)
		r.Iterations = int(iterations)
		r.Converged = converged == 1
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the clickhouse client.
func (s *ClickHouseStorage) Close() error { return nil }
