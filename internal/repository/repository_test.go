package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"CreditRisk/internal/domain/models"
	pkgkafka "CreditRisk/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducer struct {
	topic  string
	sent   []pkgkafka.Message
	err    error
	closed bool
}

func (p *stubProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	p.topic = topic
	p.sent = append(p.sent, msgs...)
	return p.err
}

func (p *stubProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaPublisherKeysByTicker(t *testing.T) {
	prod := &stubProducer{}
	pub := NewKafkaPublisher(prod, "credit.decisions")

	recs := []*models.AssessmentRecord{
		{ID: "1", Ticker: "ACME", Status: models.RecordStatusAssessed},
		nil,
		{ID: "2", Ticker: "WEAK", Status: models.RecordStatusFailed},
	}
	require.NoError(t, pub.PublishBatch(context.Background(), recs))

	assert.Equal(t, "credit.decisions", prod.topic)
	require.Len(t, prod.sent, 2)
	assert.Equal(t, "ACME", string(prod.sent[0].Key))
	assert.Same(t, recs[2], prod.sent[1].Value)

	require.NoError(t, pub.Close())
	assert.True(t, prod.closed)
}

func TestKafkaPublisherSkipsEmptyAndPropagatesErrors(t *testing.T) {
	prod := &stubProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(prod, "t")

	require.NoError(t, pub.PublishBatch(context.Background(), []*models.AssessmentRecord{nil}))
	assert.Empty(t, prod.sent)

	err := pub.Publish(context.Background(), &models.AssessmentRecord{Ticker: "ACME"})
	assert.EqualError(t, err, "broker down")
}

func TestAssessmentInsertSkipsUnusableRecords(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	q, args := assessmentInsert("credit.assessments", []*models.AssessmentRecord{
		{ID: "1", Ticker: "ACME", Decision: models.DecisionApproved, Zone: models.ZoneSafe, Iterations: 3, Converged: true, EvaluatedAt: at},
		{ID: "3", Ticker: "WEAK", Status: models.RecordStatusFailed, FailureStage: models.StageSolver, FailureCode: "ERR_NOT_CONVERGED", EvaluatedAt: at},
		nil,
		{ID: "2"},
	})

	assert.True(t, strings.HasPrefix(q, "INSERT INTO credit.assessments ("+assessmentColumns+") VALUES "))
	assert.Equal(t, 2, strings.Count(q, "(?,"))
	require.Len(t, args, 34)
	assert.Equal(t, "APPROVED", args[3])
	assert.Equal(t, uint32(3), args[11])
	assert.Equal(t, uint8(1), args[12])
	assert.Equal(t, time.UTC, args[16].(time.Time).Location())
	assert.Equal(t, models.StageSolver, args[17+13])
	assert.Equal(t, "ERR_NOT_CONVERGED", args[17+14])

	q, args = assessmentInsert("t", []*models.AssessmentRecord{nil})
	assert.Empty(t, q)
	assert.Nil(t, args)
}

func TestSnapshotInsert(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snaps := []models.FinancialSnapshot{
		{Ticker: "ACME", HistoricalTotalAssets: []float64{1, 2}},
		{Ticker: "WEAK", HistoricalTotalAssets: []float64{3, 4}},
	}
	q, args := snapshotInsert("credit.financial_snapshots", snaps, at)

	assert.Equal(t, 2, strings.Count(q, "(?,"))
	require.Len(t, args, 26)
	assert.Equal(t, "WEAK", args[13])
	assert.Equal(t, []float64{3, 4}, args[24])
	assert.Equal(t, at, args[25])
}

func TestDDLUsesTableName(t *testing.T) {
	assert.Contains(t, AssessmentTableDDL("credit.assessments"), "CREATE TABLE IF NOT EXISTS credit.assessments")
	assert.Contains(t, SnapshotTableDDL("credit.snaps"), "historical_total_assets Array(Float64)")
}
