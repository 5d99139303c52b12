package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CreditRisk/internal/domain/models"
	"CreditRisk/internal/domain/service"
	"CreditRisk/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func acmeStatements() Statements {
	return Statements{
		Ticker: "ACME",
		BalanceSheet: []map[string]*float64{
			{
				fieldTotalAssets:        f(1200),
				fieldTotalLiabilities:   f(600),
				fieldCurrentLiabilities: f(200),
				fieldNonCurrentAssets:   f(700),
				fieldRetainedEarnings:   f(300),
				fieldStockholdersEquity: f(600),
				fieldCurrentDebt:        f(50),
				fieldLongTermDebt:       nil,
			},
			{fieldTotalAssets: f(1100)},
			{fieldTotalAssets: nil},
			{fieldTotalAssets: f(1000)},
		},
		IncomeStatement: []map[string]*float64{
			{fieldEBIT: f(150), fieldTotalRevenue: f(900)},
		},
	}
}

func TestMapStatements(t *testing.T) {
	snap, err := MapStatements(acmeStatements())
	require.NoError(t, err)

	assert.Equal(t, "ACME", snap.Ticker)
	assert.Equal(t, 1200.0, snap.TotalAssets)
	assert.Equal(t, 600.0, snap.MarketValueOfEquity)
	assert.Equal(t, 150.0, snap.EBIT)
	assert.Equal(t, 50.0, snap.CurrentDebt)
	assert.Zero(t, snap.LongTermDebt)
	assert.Equal(t, []float64{1000, 1100, 1200}, snap.HistoricalTotalAssets)
	require.NoError(t, snap.Validate())
}

func TestMapStatementsMissingField(t *testing.T) {
	st := acmeStatements()
	st.IncomeStatement[0][fieldEBIT] = nil
	_, err := MapStatements(st)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorContains(t, err, `"EBIT"`)

	_, err = MapStatements(Statements{Ticker: "X"})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestHTTPProviderSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/statements/ACME", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_ = json.NewEncoder(w).Encode(acmeStatements())
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL+"/v1/", time.Second, WithAPIKey("secret"))
	require.NoError(t, err)

	snap, err := p.Snapshot(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, snap.TotalAssets)
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(acmeStatements())
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, time.Second, WithRetries(2), WithBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), "ACME")
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPProviderNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, time.Second, WithBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), "NOPE")
	assert.ErrorIs(t, err, service.ErrSnapshotNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNewHTTPProviderRequiresURL(t *testing.T) {
	_, err := NewHTTPProvider("", time.Second)
	assert.Error(t, err)
}

type countingProvider struct {
	calls int
	snap  models.FinancialSnapshot
	err   error
}

func (p *countingProvider) Snapshot(context.Context, string) (models.FinancialSnapshot, error) {
	p.calls++
	return p.snap, p.err
}

type brokenCache struct{}

func (brokenCache) GetBytes(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}

func (brokenCache) SetBytes(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}

func TestCachedServesRepeatsFromCache(t *testing.T) {
	snap, err := MapStatements(acmeStatements())
	require.NoError(t, err)
	inner := &countingProvider{snap: snap}
	c := NewCached(inner, cache.NewTTLCache(), time.Hour, nil)

	for i := 0; i < 3; i++ {
		got, err := c.Snapshot(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{err: service.ErrSnapshotNotFound}
	c := NewCached(inner, cache.NewTTLCache(), time.Hour, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Snapshot(context.Background(), "NOPE")
		assert.ErrorIs(t, err, service.ErrSnapshotNotFound)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedToleratesCacheFailures(t *testing.T) {
	inner := &countingProvider{snap: models.FinancialSnapshot{Ticker: "ACME"}}
	c := NewCached(inner, brokenCache{}, time.Hour, nil)

	got, err := c.Snapshot(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Ticker)
}
