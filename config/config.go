// Package config loads the orchestrator's environment-injected sizing
// inputs (spec §6, "Environment inputs"): step timeout, retry cooldown, max
// retry attempts, and the storage DSN. None of these are behavior, only
// defaults, so they load once at process start and are passed down by
// value rather than read from globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds every environment-injectable knob the orchestrator needs.
type Config struct {
	// StepTimeout bounds a single forward or compensating step call
	// (spec §5). Default 30s.
	StepTimeout time.Duration `validate:"required,min=1000000000"`

	// RetryCooldown is the minimum wait after a terminal execution before
	// a retry is eligible (spec §4.7). Default 30s.
	RetryCooldown time.Duration `validate:"required,min=1000000000"`

	// MaxRetryAttempts bounds the non-CANCELLED retry attempts an order
	// may accumulate (spec §4.7, §8 property 6). Default 3.
	MaxRetryAttempts int `validate:"required,min=1"`

	// DatabaseDSN is the modernc.org/sqlite data source the relational
	// gateway opens. Empty means an in-memory database.
	DatabaseDSN string

	// NATSURL is the core NATS server URL the Status Stream connects to
	// for cross-process fan-out. Empty disables the NATS transport and
	// leaves the in-process hub as the only publisher.
	NATSURL string

	// RedisAddr is the L2 read-cache backend. Empty disables the L2 tier
	// and leaves the in-process L1 cache as the only layer.
	RedisAddr string
}

const (
	defaultStepTimeout      = 30 * time.Second
	defaultRetryCooldown    = 30 * time.Second
	defaultMaxRetryAttempts = 3
)

// Load builds a Config from environment variables, falling back to the
// package defaults for anything unset, then validates the result.
func Load() (Config, error) {
	cfg := Config{
		StepTimeout:      getEnvDuration("STEP_TIMEOUT", defaultStepTimeout),
		RetryCooldown:    getEnvDuration("RETRY_COOLDOWN", defaultRetryCooldown),
		MaxRetryAttempts: getEnvInt("MAX_RETRY_ATTEMPTS", defaultMaxRetryAttempts),
		DatabaseDSN:      getEnvString("DATABASE_DSN", ""),
		NATSURL:          getEnvString("NATS_URL", ""),
		RedisAddr:        getEnvString("REDIS_ADDR", ""),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct-tag constraints on cfg.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
