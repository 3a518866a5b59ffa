package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port              int
	DevMode           bool
	DatabasePath      string
	LogLevel          string
	DefaultShotsX     int
	DefaultShotsY     int
	DefaultShotsZ     int
	DefaultRestarts   int
	MaxQubits         int
	BenchmarkSchedule string // cron expression; empty disables the job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("GO_PORT", 8001),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/tomography.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultShotsX:     getEnvAsInt("DEFAULT_SHOTS_X", 1000),
		DefaultShotsY:     getEnvAsInt("DEFAULT_SHOTS_Y", 1000),
		DefaultShotsZ:     getEnvAsInt("DEFAULT_SHOTS_Z", 1000),
		DefaultRestarts:   getEnvAsInt("DEFAULT_RESTARTS", 50),
		MaxQubits:         getEnvAsInt("MAX_QUBITS", 4),
		BenchmarkSchedule: getEnv("BENCHMARK_SCHEDULE", "@hourly"),
	}

	// "off" disables the benchmark job; an unset variable keeps the default.
	if cfg.BenchmarkSchedule == "off" {
		cfg.BenchmarkSchedule = ""
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.DefaultShotsX <= 0 || c.DefaultShotsY <= 0 || c.DefaultShotsZ <= 0 {
		return fmt.Errorf("default shot counts must be positive")
	}
	if c.DefaultRestarts <= 0 {
		return fmt.Errorf("DEFAULT_RESTARTS must be positive")
	}
	if c.MaxQubits < 1 {
		return fmt.Errorf("MAX_QUBITS must be at least 1")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
