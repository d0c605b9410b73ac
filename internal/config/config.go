package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"cltlab/domain/game"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	"cltlab/internal"
	"cltlab/internal/errors"
)

// Session store kinds
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Lab     LabConfig
	Game    GameConfig
	Logging   LoggingConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LabConfig holds the resampling settings shared by every view
type LabConfig struct {
	// Seed makes every random stream reproducible; 0 seeds from entropy
	Seed           uint64
	PopulationSize int
	SampleCount    int
}

// GameConfig holds the mystery-game settings
type GameConfig struct {
	Mode        game.Mode
	Store       string
	DSN         string
	IdleTimeout time.Duration
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level internal.LogLevel
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: *loadServerConfig(),
	}

	labConfig, err := loadLabConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load lab configuration")
	}
	config.Lab = *labConfig

	gameConfig, err := loadGameConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load game configuration")
	}
	config.Game = *gameConfig

	loggingConfig, err := loadLoggingConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load logging configuration")
	}
	config.Logging = *loggingConfig

	config.Profiling = *loadProfilingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadLabConfig() (*LabConfig, error) {
	seed, err := getEnvUint64OrDefault("CLT_SEED", 0)
	if err != nil {
		return nil, err
	}
	return &LabConfig{
		Seed:           seed,
		PopulationSize: getEnvIntOrDefault("POPULATION_SIZE", population.DefaultSize),
		SampleCount:    getEnvIntOrDefault("SAMPLE_COUNT", stats.DefaultSampleCount),
	}, nil
}

func loadGameConfig() (*GameConfig, error) {
	mode, err := game.ParseMode(os.Getenv("GAME_MODE"))
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("GAME_MODE must be %q or %q", game.ModeSubmit, game.ModeLive))
	}
	return &GameConfig{
		Mode:        mode,
		Store:       getEnvOrDefault("SESSION_STORE", StoreMemory),
		DSN:         os.Getenv("SESSION_DSN"),
		IdleTimeout: getEnvDurationOrDefault("SESSION_IDLE_TIMEOUT", 2*time.Hour),
	}, nil
}

func loadLoggingConfig() (*LoggingConfig, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown LOG_LEVEL %q", raw))
	}
	return &LoggingConfig{Level: level}, nil
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Lab.PopulationSize < 2 {
		return errors.ConfigInvalid("POPULATION_SIZE must be at least 2")
	}
	if config.Lab.SampleCount < 1 {
		return errors.ConfigInvalid("SAMPLE_COUNT must be positive")
	}
	switch config.Game.Store {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if config.Game.DSN == "" {
			return errors.ConfigInvalid(fmt.Sprintf("SESSION_DSN is required for the %s session store", config.Game.Store))
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown SESSION_STORE %q", config.Game.Store))
	}
	if config.Game.IdleTimeout <= 0 {
		return errors.ConfigInvalid("SESSION_IDLE_TIMEOUT must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvUint64OrDefault rejects malformed values: a typo in a seed must not silently
// switch to entropy seeding
func getEnvUint64OrDefault(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an unsigned integer, got %q", key, value))
	}
	return parsed, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
