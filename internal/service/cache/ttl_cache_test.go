package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(100, 0)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestTTLCacheCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	v := []byte("abc")
	require.NoError(t, c.SetBytes(ctx, "k", v, 0))
	v[0] = 'x'

	b, ok, _ := c.GetBytes(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "abc", string(b))
}
