package clickhouse

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := *defaultClientConfig()
	cfg.Host = "ch.local"
	cfg.Database = "credit"
	cfg.Password = "p@ss"
	cfg.MaxExecTime = 90 * time.Second
	cfg.AsyncInsert = true
	cfg.WaitForAsync = true

	u, err := url.Parse(BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/credit", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "5s", q.Get("dial_timeout"))
	assert.Equal(t, "90", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
	assert.False(t, q.Has("write_timeout"))
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := *defaultClientConfig()
	cfg.Host = "localhost"
	cfg.Port = 8123
	cfg.UseHTTP = true
	cfg.DialTimeout, cfg.ReadTimeout = 0, 0

	u, err := url.Parse(BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Empty(t, u.RawQuery)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	assert.ErrorContains(t, err, "host is required")
}
