// Package config loads server settings from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/signalsfoundry/emfield-mapper/core"
	"github.com/signalsfoundry/emfield-mapper/internal/logging"
)

// Config holds all server settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	Engine core.EngineConfig
}

// Load reads configuration from environment variables, applying
// defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout := 10 * time.Second
	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
		}
		shutdownTimeout = d
	}

	engine := core.DefaultEngineConfig()
	if raw := os.Getenv("EMFIELD_TOP_K"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errors.New("invalid EMFIELD_TOP_K")
		}
		engine.TopK = n
	}
	if raw := os.Getenv("EMFIELD_THRESHOLD_DBUVM"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("invalid EMFIELD_THRESHOLD_DBUVM")
		}
		engine.ThresholdDBuVm = v
	}

	return &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,
		Engine:          engine,
	}, nil
}

// LoggerConfig maps the loaded log settings onto the logging package.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
