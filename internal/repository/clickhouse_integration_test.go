//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"CreditRisk/internal/domain/models"
	"CreditRisk/internal/domain/service"
	pkgch "CreditRisk/pkg/clickhouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupClickHouse(t *testing.T) *pkgch.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env:          map[string]string{"CLICKHOUSE_DB": "credit"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(host),
		pkgch.WithPort(port.Int()),
		pkgch.WithDatabase("credit"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClickHouseRoundTrip(t *testing.T) {
	client := setupClickHouse(t)
	ctx := context.Background()

	store := NewClickHouseStorage(client.DB(), client.Table("assessments"))
	require.NoError(t, store.Init(ctx))
	snaps := NewCHSnapshotStore(client.DB(), client.Table("financial_snapshots"), nil)
	require.NoError(t, snaps.Init(ctx))

	t.Run("assessments", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Millisecond)
		recs := make([]*models.AssessmentRecord, 0, 3)
		for i := 0; i < 3; i++ {
			recs = append(recs, &models.AssessmentRecord{
				ID:                 fmt.Sprintf("id-%d", i),
				Ticker:             "ACME",
				Status:             models.RecordStatusAssessed,
				Decision:           models.DecisionApproved,
				ZScore:             3.1,
				Zone:               models.ZoneSafe,
				DefaultProbability: 0.01,
				Iterations:         4,
				Converged:          true,
				EvaluatedAt:        at.Add(time.Duration(i) * time.Second),
			})
		}
		recs = append(recs, &models.AssessmentRecord{
			ID:           "failed",
			Ticker:       "WEAK",
			Status:       models.RecordStatusFailed,
			FailureStage: models.StageDynamics,
			FailureCode:  "ERR_DEGENERATE_VOLATILITY",
			EvaluatedAt:  at,
		})
		require.NoError(t, store.StoreBatch(ctx, recs))

		got, err := store.Query(ctx, "ACME", at.Add(-time.Minute), at.Add(time.Minute), 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "id-2", got[0].ID)
		assert.True(t, got[0].Converged)
		assert.Equal(t, models.DecisionApproved, got[0].Decision)

		failed, err := store.Query(ctx, "WEAK", at.Add(-time.Minute), at.Add(time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "ERR_DEGENERATE_VOLATILITY", failed[0].FailureCode)
	})

	t.Run("snapshots", func(t *testing.T) {
		old := models.FinancialSnapshot{
			Ticker: "ACME", TotalAssets: 100, TotalLiabilities: 50,
			HistoricalTotalAssets: []float64{90, 100},
		}
		require.NoError(t, snaps.SaveSnapshots(ctx, []models.FinancialSnapshot{old}))
		snaps.now = func() time.Time { return time.Now().Add(time.Hour) }
		fresh := old
		fresh.TotalAssets = 120
		fresh.HistoricalTotalAssets = []float64{90, 100, 120}
		require.NoError(t, snaps.SaveSnapshots(ctx, []models.FinancialSnapshot{fresh}))

		got, err := snaps.Snapshot(ctx, "ACME")
		require.NoError(t, err)
		assert.Equal(t, fresh, got)

		_, err = snaps.Snapshot(ctx, "NOPE")
		assert.ErrorIs(t, err, service.ErrSnapshotNotFound)
	})
}
