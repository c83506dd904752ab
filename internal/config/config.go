package config

import (
	"os"
	"strconv"

	"interestingness/domain/scenario"
	"interestingness/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Paths    PathConfig
	Analysis scenario.Config
}

// DatabaseConfig holds database connection settings. An empty URL means no
// database is configured and callers fall back to the in-memory store.
type DatabaseConfig struct {
	URL     string
	Host    string
	Port    int
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system output locations
type PathConfig struct {
	ReportsDir string
	VisualsDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Paths:    loadPathConfig(),
		Analysis: loadAnalysisConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		Host:    getEnvOrDefault("DB_HOST", ""),
		Port:    getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		ReportsDir: getEnvOrDefault("REPORTS_DIR", "./reports"),
		VisualsDir: getEnvOrDefault("VISUALS_DIR", "./reports/visual"),
	}
}

// loadAnalysisConfig builds the scenario thresholds, starting from the
// defaults and overriding whatever the environment sets.
func loadAnalysisConfig() scenario.Config {
	cfg := scenario.Defaults()
	cfg.NumStates = getEnvIntOrDefault("NUM_STATES", cfg.NumStates)
	cfg.NumActions = getEnvIntOrDefault("NUM_ACTIONS", cfg.NumActions)
	cfg.FrequentMinVisits = getEnvIntOrDefault("FREQUENT_MIN_VISITS", cfg.FrequentMinVisits)
	cfg.FrequentVisitPercentile = getEnvFloatOrDefault("FREQUENT_VISIT_PERCENTILE", cfg.FrequentVisitPercentile)
	cfg.InfrequentMaxVisits = getEnvIntOrDefault("INFREQUENT_MAX_VISITS", cfg.InfrequentMaxVisits)
	cfg.RareOutcomeMaxProb = getEnvFloatOrDefault("RARE_OUTCOME_MAX_PROB", cfg.RareOutcomeMaxProb)
	cfg.UncertainMinEntropy = getEnvFloatOrDefault("UNCERTAIN_MIN_ENTROPY", cfg.UncertainMinEntropy)
	cfg.MinPairSupport = getEnvIntOrDefault("MIN_PAIR_SUPPORT", cfg.MinPairSupport)
	cfg.OutlierIQRFactor = getEnvFloatOrDefault("OUTLIER_IQR_FACTOR", cfg.OutlierIQRFactor)
	return cfg
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Paths.ReportsDir == "" {
		return errors.ConfigInvalid("reports directory is required")
	}
	if err := config.Analysis.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
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
