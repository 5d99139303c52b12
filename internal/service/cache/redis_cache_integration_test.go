//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	c := NewRedisCacheFromClient(redis.NewClient(opts), "test:")
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.GetBytes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "snap:ACME", []byte(`{"ticker":"ACME"}`), time.Minute))
	b, ok, err := c.GetBytes(ctx, "snap:ACME")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"ticker":"ACME"}`, string(b))
}
