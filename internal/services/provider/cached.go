package provider

import (
	"context"
	"encoding/json"
	"time"

	"CreditRisk/internal/domain/models"
	"CreditRisk/internal/domain/service"
	"CreditRisk/internal/service/cache"
	applogger "CreditRisk/pkg/logger"
)

// Cached serves snapshots from a BytesCache and falls through to the wrapped
// provider on a miss. Cache failures are logged and never fail the lookup.
type Cached struct {
	inner  service.SnapshotProvider
	cache  cache.BytesCache
	ttl    time.Duration
	prefix string
	log    *applogger.Logger
}

var _ service.SnapshotProvider = (*Cached)(nil)

func NewCached(inner service.SnapshotProvider, c cache.BytesCache, ttl time.Duration, log *applogger.Logger) *Cached {
	if log == nil {
		log = applogger.NewNop()
	}
	return &Cached{inner: inner, cache: c, ttl: ttl, prefix: "snapshot:", log: log}
}

func (c *Cached) Snapshot(ctx context.Context, ticker string) (models.FinancialSnapshot, error) {
	key := c.prefix + ticker
	if b, ok, err := c.cache.GetBytes(ctx, key); err != nil {
		c.log.Warn("snapshot cache read", applogger.String("ticker", ticker), applogger.Error(err))
	} else if ok {
		var snap models.FinancialSnapshot
		if err := json.Unmarshal(b, &snap); err == nil {
			return snap, nil
		}
		c.log.Warn("snapshot cache entry corrupt", applogger.String("ticker", ticker))
	}

	snap, err := c.inner.Snapshot(ctx, ticker)
	if err != nil {
		return models.FinancialSnapshot{}, err
	}
	if b, err := json.Marshal(snap); err == nil {
		if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("snapshot cache write", applogger.String("ticker", ticker), applogger.Error(err))
		}
	}
	return snap, nil
}
