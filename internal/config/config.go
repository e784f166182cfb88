// Package config loads estimator settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"pmcestimator/domain/distribution"
	"pmcestimator/internal/optimizer"
)

// Config represents the complete estimator configuration
type Config struct {
	Engine EngineConfig
	Search optimizer.Config
	Batch  BatchConfig
}

// EngineConfig holds baseline generation settings
type EngineConfig struct {
	Seed             int64
	DistributionType distribution.DistributionType
	NumSamples       int
}

// BatchConfig holds batch processing settings
type BatchConfig struct {
	Parallelism int
	OutputFile  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	engine, err := loadEngineConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load engine configuration: %w", err)
	}

	config := &Config{
		Engine: *engine,
		Search: loadSearchConfig(),
		Batch: BatchConfig{
			Parallelism: getEnvIntOrDefault("ESTIMATOR_PARALLELISM", 4),
			OutputFile:  getEnvOrDefault("ESTIMATOR_OUTPUT_FILE", ""),
		},
	}
	return config, nil
}

func loadEngineConfig() (*EngineConfig, error) {
	distType, err := distribution.ParseDistributionType(
		strings.ToLower(getEnvOrDefault("ESTIMATOR_DISTRIBUTION", "")))
	if err != nil {
		return nil, err
	}

	return &EngineConfig{
		Seed:             getEnvInt64OrDefault("ESTIMATOR_SEED", 42),
		DistributionType: distType,
		NumSamples:       getEnvIntOrDefault("ESTIMATOR_SAMPLES", 0),
	}, nil
}

func loadSearchConfig() optimizer.Config {
	cfg := optimizer.DefaultConfig()
	cfg.ScoutSamples = getEnvIntOrDefault("ESTIMATOR_SCOUT_SAMPLES", cfg.ScoutSamples)
	cfg.CandidatePool = getEnvIntOrDefault("ESTIMATOR_CANDIDATE_POOL", cfg.CandidatePool)
	cfg.PruneBudget = getEnvIntOrDefault("ESTIMATOR_PRUNE_BUDGET", cfg.PruneBudget)
	cfg.Parallelism = getEnvIntOrDefault("ESTIMATOR_SEARCH_PARALLELISM", cfg.Parallelism)
	return cfg
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
