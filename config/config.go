package config

import (
	"fmt"
	"os"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Stores
	RedisURL    string
	DatabaseURL string

	// Event bus
	NATSURL string

	// Observability
	OTelEnabled      bool
	OTelServiceName  string
	OTelExporterType string // "console" or "otlp"
	OTelEndpoint     string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		NATSURL:     os.Getenv("NATS_URL"),

		OTelEnabled:      os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:  os.Getenv("OTEL_SERVICE_NAME"),
		OTelExporterType: os.Getenv("OTEL_EXPORTER_TYPE"),
		OTelEndpoint:     os.Getenv("OTEL_ENDPOINT"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.OTelServiceName == "" {
		config.OTelServiceName = "diamondpay"
	}
	if config.OTelExporterType == "" {
		config.OTelExporterType = "console"
	}

	if config.Environment != "test" {
		if config.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
