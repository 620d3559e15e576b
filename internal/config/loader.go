package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is returned by LoadConfig to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig loads and validates the configuration:
//  1. Sets the process timezone to UTC.
//  2. Loads a .env file if present (non-fatal if missing).
//  3. Processes envconfig tags.
//  4. Populates Config.Build from linker-injected variables.
//  5. Validates struct tags, then the cross-field rules.
func LoadConfig() (*Config, error) {
	time.Local = time.UTC

	// Does not override variables already set in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}
	cfg.Build = NewBuildInfo()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags, then that a row source is configured and that
// the engine values form valid thresholds and constants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	if !c.Data.DatabaseURL.IsSet() && c.Data.SnapshotPath == "" {
		return &ConfigError{
			Type:    ErrNoRowSource,
			Message: "one of DATABASE_URL or SNAPSHOT_PATH is required",
		}
	}
	if c.Data.MinConns > c.Data.MaxConns {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "DB_MIN_CONNS exceeds DB_MAX_CONNS",
		}
	}
	if err := c.Engine.Thresholds().Validate(); err != nil {
		return &ConfigError{Type: ErrValidation, Message: "engine thresholds", Err: err}
	}
	if err := c.Appraisal.Constants().Validate(); err != nil {
		return &ConfigError{Type: ErrValidation, Message: "appraisal constants", Err: err}
	}
	return nil
}
