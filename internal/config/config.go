package config

import (
	"os"
	"strconv"

	"immunostat/domain/stats"
	"immunostat/internal/errors"
)

// Config represents the complete application configuration. It is loaded
// once and passed by value into each entry point; nothing here is a
// process-wide mutable singleton, so tests can run engines with different
// configurations concurrently.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Analysis stats.AnalysisOptions
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string // "sqlite" (embedded, default) or "postgres"
	DSN    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort string
	UIPort  string
	GinMode string
}

// DataConfig holds data file paths
type DataConfig struct {
	CSVFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Data:     loadDataConfig(),
		Analysis: loadAnalysisConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	driver := getEnvOrDefault("DB_DRIVER", "sqlite")
	dsn := getEnvOrDefault("DATABASE_URL", "")
	if dsn == "" && driver == "sqlite" {
		dsn = "immune_cells.db"
	}
	return DatabaseConfig{Driver: driver, DSN: dsn}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		UIPort:  getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDataConfig() DataConfig {
	return DataConfig{
		CSVFile: getEnvOrDefault("CELL_COUNT_FILE", "cell-count.csv"),
	}
}

func loadAnalysisConfig() stats.AnalysisOptions {
	opts := stats.DefaultOptions()
	opts.Resamples = getEnvIntOrDefault("BOOTSTRAP_RESAMPLES", opts.Resamples)
	opts.RandomSeed = int64(getEnvIntOrDefault("BOOTSTRAP_SEED", int(opts.RandomSeed)))
	opts.ConfidenceLevel = getEnvFloatOrDefault("CONFIDENCE_LEVEL", opts.ConfidenceLevel)
	if unit := os.Getenv("ANALYSIS_UNIT"); unit != "" {
		opts.Unit = stats.Unit(unit)
	}
	return opts
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.ConfigInvalid("DB_DRIVER must be sqlite or postgres")
	}
	if config.Database.DSN == "" {
		return errors.ConfigInvalid("DATABASE_URL is required for the postgres driver")
	}
	if err := config.Analysis.Validate(); err != nil {
		return errors.Wrap(err, "analysis defaults invalid")
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
