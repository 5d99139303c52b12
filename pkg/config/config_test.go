package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 3.0, c.Risk.ZSafe)
	assert.Equal(t, 1.8, c.Risk.ZDistress)
	assert.Equal(t, 0.05, c.Risk.MaxDefaultProbability)
	assert.Equal(t, 1.0, c.Risk.Solver.Horizon)
	assert.Equal(t, 1e-6, c.Risk.Solver.Tolerance)
	assert.Equal(t, 100, c.Risk.Solver.MaxIterations)
	assert.True(t, c.Risk.Solver.RequireConvergence)
	assert.True(t, c.Risk.Solver.ScaleTolerance)
	assert.Equal(t, "kafka", c.Backend.Type)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 15*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: test
risk:
  z_safe: 2.9
  solver:
    max_iterations: 50
    require_convergence: false
analysis:
  workers: 2
`))
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 2.9, c.Risk.ZSafe)
	assert.Equal(t, 1.8, c.Risk.ZDistress)
	assert.Equal(t, 50, c.Risk.Solver.MaxIterations)
	assert.False(t, c.Risk.Solver.RequireConvergence)
	assert.Equal(t, 2, c.Analysis.Workers)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"inverted thresholds": "risk:\n  z_safe: 1.0\n  z_distress: 2.0\n",
		"unknown backend":     "backend:\n  type: s3\n",
		"http provider no url": "provider:\n  type: http\n",
		"bad log level":       "logging:\n  level: loud\n",
		"zero iterations":     "risk:\n  solver:\n    max_iterations: 0\n",
		"clickhouse backend off": "kafka:\n  enabled: true\nbackend:\n  type: clickhouse\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))

	t.Setenv("CREDIT_BACKEND", "clickhouse")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PROVIDER_URL", "http://provider.local")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", c.Backend.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "http://provider.local", c.Provider.URL)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestSampleConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}
