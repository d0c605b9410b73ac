package config

import (
	"testing"
	"time"

	"cltlab/domain/game"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	"cltlab/internal"
	"cltlab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "CLT_SEED", "POPULATION_SIZE", "SAMPLE_COUNT",
	"GAME_MODE", "SESSION_STORE", "SESSION_DSN", "SESSION_IDLE_TIMEOUT", "PPROF_ENABLED", "PPROF_PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, uint64(0), cfg.Lab.Seed)
	assert.Equal(t, population.DefaultSize, cfg.Lab.PopulationSize)
	assert.Equal(t, stats.DefaultSampleCount, cfg.Lab.SampleCount)
	assert.Equal(t, game.ModeSubmit, cfg.Game.Mode)
	assert.Equal(t, StoreMemory, cfg.Game.Store)
	assert.Equal(t, 2*time.Hour, cfg.Game.IdleTimeout)
	assert.Equal(t, internal.LogLevelInfo, cfg.Logging.Level)
	assert.False(t, cfg.Profiling.Enabled)
	assert.Equal(t, "6060", cfg.Profiling.Port)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CLT_SEED", "42")
	t.Setenv("POPULATION_SIZE", "5000")
	t.Setenv("GAME_MODE", "live")
	t.Setenv("SESSION_STORE", "sqlite")
	t.Setenv("SESSION_DSN", "file:sessions.db")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PPROF_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, uint64(42), cfg.Lab.Seed)
	assert.Equal(t, 5000, cfg.Lab.PopulationSize)
	assert.Equal(t, game.ModeLive, cfg.Game.Mode)
	assert.Equal(t, StoreSQLite, cfg.Game.Store)
	assert.Equal(t, "file:sessions.db", cfg.Game.DSN)
	assert.Equal(t, 15*time.Minute, cfg.Game.IdleTimeout)
	assert.Equal(t, internal.LogLevelDebug, cfg.Logging.Level)
	assert.True(t, cfg.Profiling.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad seed", map[string]string{"CLT_SEED": "-3"}},
		{"bad mode", map[string]string{"GAME_MODE": "turbo"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"unknown store", map[string]string{"SESSION_STORE": "redis"}},
		{"sql store without dsn", map[string]string{"SESSION_STORE": "postgres"}},
		{"tiny population", map[string]string{"POPULATION_SIZE": "1"}},
		{"zero sample count", map[string]string{"SAMPLE_COUNT": "0"}},
		{"negative idle timeout", map[string]string{"SESSION_IDLE_TIMEOUT": "-1m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
