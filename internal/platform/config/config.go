// Package config provides application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	LogLevel      string
	HelmBin       string        // helm binary name or path, resolved via PATH
	RenderTimeout time.Duration // upper bound on one helm invocation

	// OpenTelemetry (optional)
	OTelEnabled bool // OTEL_ENABLED feature flag
}

// Load reads configuration from environment variables and applies defaults:
// LogLevel "info", HelmBin "helm", RenderTimeout 5m.
func Load() (Config, error) {
	cfg := Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HelmBin:  getEnvOrDefault("HELM_BIN", "helm"),
	}

	timeout, err := parseDurationOrDefault("RENDER_TIMEOUT", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.RenderTimeout = timeout

	cfg.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"

	return cfg, nil
}

func getEnvOrDefault(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func parseDurationOrDefault(envKey string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return dur, nil
}
