package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct{ err error }

func (f failingCache) GetBytes(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingCache) SetBytes(context.Context, string, []byte, time.Duration) error {
	return f.err
}

func TestLayeredPromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewTTLCache(), NewTTLCache()
	c := NewLayered(l1, l2, time.Minute)

	require.NoError(t, l2.SetBytes(ctx, "k", []byte("v"), 0))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)
	assert.Equal(t, 1, l1.Len(), "hit is copied into L1")
}

func TestLayeredWritesThrough(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewTTLCache(), NewTTLCache()
	c := NewLayered(l1, l2, time.Minute)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Hour))
	_, ok, _ := l1.GetBytes(ctx, "k")
	assert.True(t, ok)
	_, ok, _ = l2.GetBytes(ctx, "k")
	assert.True(t, ok)
}

func TestLayeredL2Failure(t *testing.T) {
	ctx := context.Background()
	l1 := NewTTLCache()
	c := NewLayered(l1, failingCache{err: errors.New("redis down")}, time.Minute)

	assert.Error(t, c.SetBytes(ctx, "k", []byte("v"), time.Hour))
	assert.Equal(t, 0, l1.Len(), "L1 is not written when L2 fails")

	_, ok, err := c.GetBytes(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
