package di

import (
	"testing"

	"CreditRisk/internal/services/provider"
	"CreditRisk/internal/service/cache"
	"CreditRisk/pkg/config"
	applogger "CreditRisk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Logging.Output = "stderr"
	return cfg
}

func TestInitializeAppWithoutInfrastructure(t *testing.T) {
	app, err := InitializeApp(defaultConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, app)
}

func TestAnalyzerConfigFrom(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Risk.ZSafe = 2.9
	cfg.Risk.Solver.ScaleTolerance = true
	cfg.Analysis.Workers = 3

	ac := AnalyzerConfigFrom(cfg)
	assert.Equal(t, 2.9, ac.Thresholds.ZSafe)
	assert.Equal(t, 1.8, ac.Thresholds.ZDistress)
	assert.Equal(t, 0.05, ac.Thresholds.MaxDefaultProbability)
	assert.True(t, ac.ScaleTolerance)
	assert.True(t, ac.RequireConvergence)
	assert.Equal(t, 3, ac.Workers)
	assert.Equal(t, 100, ac.MaxIterations)
}

func TestProvideSnapshotProvider(t *testing.T) {
	cfg := defaultConfig(t)
	log := applogger.NewNop()

	p, err := ProvideSnapshotProvider(cfg, nil, cache.NewTTLCache(), log)
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.Provider.Type = "http"
	cfg.Provider.URL = "http://statements.local"
	p, err = ProvideSnapshotProvider(cfg, nil, cache.NewTTLCache(), log)
	require.NoError(t, err)
	assert.IsType(t, &provider.Cached{}, p)

	cfg.Provider.Type = "clickhouse"
	_, err = ProvideSnapshotProvider(cfg, nil, cache.NewTTLCache(), log)
	assert.Error(t, err)
}

func TestProvideAssessmentProcessorNeedsBackend(t *testing.T) {
	cfg := defaultConfig(t)
	assert.Nil(t, ProvideAssessmentProcessor(nil, nil, ProvideMetrics(ProvideRegistry()), cfg, applogger.NewNop()))
}
