package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{
		Environment: "development",
	}
	assert.True(t, cfg.IsDevelopment())

	cfg = &Config{
		Environment: "production",
	}
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())

	cfg = &Config{
		Environment: "staging",
	}
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadWithOptions(t *testing.T) {
	// Set environment variables for the test
	os.Setenv("SECRET_KEY", "test-secret-key")
	os.Setenv("ALERT_EMAIL", "ops@example.com")
	os.Setenv("SERVER_PORT", "9000")
	os.Setenv("SERVER_HOST", "127.0.0.1")
	os.Setenv("DB_HOST", "testhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_USER", "testuser")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("DB_NAME", "mailfleet_test")
	os.Setenv("ENVIRONMENT", "development")
	os.Setenv("MIN_SCORE", "80")
	os.Setenv("RETRY_DELAY_TEST_MS", "60000")
	os.Setenv("PLACEMENT_API_URL", "https://placement.example.com")

	// Clean up after the test
	defer func() {
		os.Unsetenv("SECRET_KEY")
		os.Unsetenv("ALERT_EMAIL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("SERVER_HOST")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("DB_USER")
		os.Unsetenv("DB_PASSWORD")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("MIN_SCORE")
		os.Unsetenv("RETRY_DELAY_TEST_MS")
		os.Unsetenv("PLACEMENT_API_URL")
	}()

	// Load config with env vars only
	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	// Verify loaded config values
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "testhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "mailfleet_test", cfg.Database.DBName)
	assert.Equal(t, "ops@example.com", cfg.AlertEmail)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "test-secret-key", cfg.Security.SecretKey)
	assert.Equal(t, "https://placement.example.com", cfg.Providers.PlacementAPIURL)

	// Environment overrides beat defaults
	assert.Equal(t, 80, cfg.Automation.MinScore)
	assert.Equal(t, time.Minute, cfg.Automation.RetryDelayTest)

	assert.True(t, cfg.IsDevelopment())
}

func TestLoadWithOptions_Defaults(t *testing.T) {
	os.Setenv("SECRET_KEY", "test-secret-key")
	defer os.Unsetenv("SECRET_KEY")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	// Retry policy
	assert.Equal(t, 3, cfg.Automation.MaxRetries)
	assert.Equal(t, 15*time.Minute, cfg.Automation.RetryDelayTest)
	assert.Equal(t, time.Hour, cfg.Automation.RetryDelayWarmup)
	assert.Equal(t, 5*time.Minute, cfg.Automation.RetryDelayRotation)
	assert.Equal(t, time.Duration(0), cfg.Automation.RetryDelayHealth)

	// Transition rules
	assert.Equal(t, 75, cfg.Automation.MinScore)
	assert.Equal(t, 3, cfg.Automation.MinTests)
	assert.Equal(t, 21, cfg.Automation.GraduationDays)
	assert.Equal(t, 21, cfg.Automation.RecoveryDays)
	assert.Equal(t, 2, cfg.Automation.MaxConsecutiveLow)

	// Rate limits
	assert.Equal(t, 30, cfg.Automation.RatePerDomain)
	assert.Equal(t, 100, cfg.Automation.RateGlobal)
	assert.Equal(t, time.Minute, cfg.Automation.RateWindow)

	// Alert thresholds
	assert.Equal(t, 60, cfg.Automation.HealthCritical)
	assert.Equal(t, 75, cfg.Automation.HealthWarning)
	assert.Equal(t, 70.0, cfg.Automation.PoolHealthCritical)

	// Ambient defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mailfleet", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, VERSION, cfg.Version)
	assert.Equal(t, "mailfleet-engine", cfg.Tracing.ServiceName)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadWithOptions_MissingSecretKey(t *testing.T) {
	os.Unsetenv("SECRET_KEY")

	_, err := LoadWithOptions(LoadOptions{})
	require.Error(t, err)
	assert.Equal(t, "SECRET_KEY is required", err.Error())
}

func TestWebhookEndpointFallsBackToAPIEndpoint(t *testing.T) {
	os.Setenv("SECRET_KEY", "test-secret-key")
	os.Setenv("API_ENDPOINT", "https://engine.example.com")
	defer func() {
		os.Unsetenv("SECRET_KEY")
		os.Unsetenv("API_ENDPOINT")
	}()

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://engine.example.com", cfg.WebhookEndpoint)
}

func TestLoad(t *testing.T) {
	os.Setenv("SECRET_KEY", "test-secret-key")
	os.Setenv("ALERT_EMAIL", "ops@example.com")

	defer func() {
		os.Unsetenv("SECRET_KEY")
		os.Unsetenv("ALERT_EMAIL")
	}()

	// Load() reads an optional .env; environment variables still win.
	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "ops@example.com", cfg.AlertEmail)
}
