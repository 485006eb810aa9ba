// Package config loads service configuration from the environment, with an
// optional YAML file overlay for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	Environment string `yaml:"environment" validate:"required,oneof=development test staging production"`
	Port        int    `yaml:"port" validate:"required,min=1,max=65535"`
	LogLevel    string `yaml:"logLevel" validate:"required,oneof=debug info warn error"`

	Region         string `yaml:"region" validate:"required"`
	DynamoEndpoint string `yaml:"dynamoEndpoint"`
	SessionsTable  string `yaml:"sessionsTable" validate:"required"`
	PitchesTable   string `yaml:"pitchesTable" validate:"required"`

	SchemaPath       string `yaml:"schemaPath" validate:"required"`
	MetricsNamespace string `yaml:"metricsNamespace" validate:"required"`

	// LocalDevUserID bypasses header authentication; refused in production.
	LocalDevUserID string `yaml:"localDevUserId"`

	// RateLimitSweepInterval controls how often expired admission windows
	// are collected. The window length and ceiling are protocol constants.
	RateLimitSweepInterval time.Duration `yaml:"rateLimitSweepInterval" validate:"min=1s"`
}

// Load builds the configuration from environment variables, overlaying the
// YAML file at CONFIG_PATH if set, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:            getEnv("ENVIRONMENT", "development"),
		Port:                   getEnvInt("PORT", 8080),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		Region:                 getEnv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:         getEnv("DYNAMO_ENDPOINT", ""),
		SessionsTable:          getEnv("SESSIONS_TABLE", "Sessions"),
		PitchesTable:           getEnv("PITCHES_TABLE", "Pitches"),
		SchemaPath:             getEnv("SESSION_SCHEMA_PATH", "contracts/session_summary.schema.json"),
		MetricsNamespace:       getEnv("METRICS_NAMESPACE", "pitchstat"),
		LocalDevUserID:         getEnv("LOCAL_DEV_USER_ID", ""),
		RateLimitSweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// getEnv gets an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
