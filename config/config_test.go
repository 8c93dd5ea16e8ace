package config_test

import (
	"os"
	"testing"
	"time"

	"ordersaga/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.StepTimeout)
	assert.Equal(t, 30*time.Second, cfg.RetryCooldown)
	assert.Equal(t, 3, cfg.MaxRetryAttempts)
	assert.Empty(t, cfg.DatabaseDSN)
}

func TestLoad_ReadsEnvironmentOverrides(t *testing.T) {
	os.Setenv("STEP_TIMEOUT", "45s")
	os.Setenv("RETRY_COOLDOWN", "2m")
	os.Setenv("MAX_RETRY_ATTEMPTS", "5")
	os.Setenv("DATABASE_DSN", "file:orders.db")
	defer func() {
		os.Unsetenv("STEP_TIMEOUT")
		os.Unsetenv("RETRY_COOLDOWN")
		os.Unsetenv("MAX_RETRY_ATTEMPTS")
		os.Unsetenv("DATABASE_DSN")
	}()

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.StepTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RetryCooldown)
	assert.Equal(t, 5, cfg.MaxRetryAttempts)
	assert.Equal(t, "file:orders.db", cfg.DatabaseDSN)
}

func TestLoad_MalformedOverrideFallsBackToDefault(t *testing.T) {
	os.Setenv("STEP_TIMEOUT", "not-a-duration")
	defer os.Unsetenv("STEP_TIMEOUT")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.StepTimeout)
}

func TestConfig_Validate_RejectsZeroMaxRetryAttempts(t *testing.T) {
	cfg := config.Config{
		StepTimeout:      time.Second,
		RetryCooldown:    time.Second,
		MaxRetryAttempts: 0,
	}
	err := cfg.Validate()
	assert.Error(t, err)
}
