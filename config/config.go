package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	Security        SecurityConfig
	Tracing         TracingConfig
	SMTP            SMTPConfig
	Automation      AutomationConfig
	Providers       ProvidersConfig
	AlertEmail      string
	Environment     string
	APIEndpoint     string
	WebhookEndpoint string
	LogLevel        string
	Version         string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SecurityConfig struct {
	// Secret passphrase for provider credential encryption
	SecretKey string
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// Metrics exporter configuration
	MetricsExporter string // "prometheus" or "none"
	PrometheusPort  int
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// AutomationConfig carries the pool automation thresholds and the job retry
// and rate-limit policies.
type AutomationConfig struct {
	// Job retry policy
	MaxRetries         int
	RetryDelayTest     time.Duration
	RetryDelayWarmup   time.Duration
	RetryDelayRotation time.Duration
	RetryDelayHealth   time.Duration

	// Transition rules
	MinScore          int
	MinTests          int
	GraduationDays    int
	RecoveryDays      int
	MaxConsecutiveLow int

	// Rate limiting of automation actions
	RatePerDomain int
	RateGlobal    int
	RateWindow    time.Duration

	// Notification and pool alert thresholds
	HealthCritical     int
	HealthWarning      int
	PoolHealthCritical float64
}

// ProvidersConfig points at the placement testing provider and the campaign
// platform. API keys left empty here are loaded from the encrypted settings
// store instead.
type ProvidersConfig struct {
	PlacementAPIURL string
	PlacementAPIKey string
	CampaignAPIURL  string
	CampaignAPIKey  string

	// WebhookSecret verifies inbound placement provider callbacks
	WebhookSecret string
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	// Try to load .env file but don't require it
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mailfleet")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	// SMTP defaults
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM_NAME", "Mailfleet")

	// Job retry policy defaults
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_DELAY_TEST_MS", 900000)     // 15 minutes
	v.SetDefault("RETRY_DELAY_WARMUP_MS", 3600000)  // 1 hour
	v.SetDefault("RETRY_DELAY_ROTATION_MS", 300000) // 5 minutes
	v.SetDefault("RETRY_DELAY_HEALTH_MS", 0)

	// Transition rule defaults
	v.SetDefault("MIN_SCORE", 75)
	v.SetDefault("MIN_TESTS", 3)
	v.SetDefault("GRADUATION_DAYS", 21)
	v.SetDefault("RECOVERY_DAYS", 21)
	v.SetDefault("MAX_CONSEC_LOW", 2)

	// Rate limit defaults
	v.SetDefault("RATE_PER_DOMAIN", 30)
	v.SetDefault("RATE_GLOBAL", 100)
	v.SetDefault("RATE_WINDOW_MS", 60000)

	// Alert threshold defaults
	v.SetDefault("HEALTH_CRITICAL", 60)
	v.SetDefault("HEALTH_WARNING", 75)
	v.SetDefault("POOL_HEALTH_CRITICAL", 70)

	// Default tracing config
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "mailfleet-engine")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	// Load environment file if specified
	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Validate required configuration
	secretKey := v.GetString("SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		SMTP: SMTPConfig{
			Host:      v.GetString("SMTP_HOST"),
			Port:      v.GetInt("SMTP_PORT"),
			Username:  v.GetString("SMTP_USERNAME"),
			Password:  v.GetString("SMTP_PASSWORD"),
			FromEmail: v.GetString("SMTP_FROM_EMAIL"),
			FromName:  v.GetString("SMTP_FROM_NAME"),
		},
		Security: SecurityConfig{
			SecretKey: secretKey,
		},
		Automation: AutomationConfig{
			MaxRetries:         v.GetInt("MAX_RETRIES"),
			RetryDelayTest:     time.Duration(v.GetInt("RETRY_DELAY_TEST_MS")) * time.Millisecond,
			RetryDelayWarmup:   time.Duration(v.GetInt("RETRY_DELAY_WARMUP_MS")) * time.Millisecond,
			RetryDelayRotation: time.Duration(v.GetInt("RETRY_DELAY_ROTATION_MS")) * time.Millisecond,
			RetryDelayHealth:   time.Duration(v.GetInt("RETRY_DELAY_HEALTH_MS")) * time.Millisecond,

			MinScore:          v.GetInt("MIN_SCORE"),
			MinTests:          v.GetInt("MIN_TESTS"),
			GraduationDays:    v.GetInt("GRADUATION_DAYS"),
			RecoveryDays:      v.GetInt("RECOVERY_DAYS"),
			MaxConsecutiveLow: v.GetInt("MAX_CONSEC_LOW"),

			RatePerDomain: v.GetInt("RATE_PER_DOMAIN"),
			RateGlobal:    v.GetInt("RATE_GLOBAL"),
			RateWindow:    time.Duration(v.GetInt("RATE_WINDOW_MS")) * time.Millisecond,

			HealthCritical:     v.GetInt("HEALTH_CRITICAL"),
			HealthWarning:      v.GetInt("HEALTH_WARNING"),
			PoolHealthCritical: v.GetFloat64("POOL_HEALTH_CRITICAL"),
		},
		Providers: ProvidersConfig{
			PlacementAPIURL: v.GetString("PLACEMENT_API_URL"),
			PlacementAPIKey: v.GetString("PLACEMENT_API_KEY"),
			CampaignAPIURL:  v.GetString("CAMPAIGN_API_URL"),
			CampaignAPIKey:  v.GetString("CAMPAIGN_API_KEY"),
			WebhookSecret:   v.GetString("WEBHOOK_SECRET"),
		},
		Tracing: TracingConfig{
			Enabled:             v.GetBool("TRACING_ENABLED"),
			ServiceName:         v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability: v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			MetricsExporter:     v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:      v.GetInt("TRACING_PROMETHEUS_PORT"),
		},

		AlertEmail:      v.GetString("ALERT_EMAIL"),
		Environment:     v.GetString("ENVIRONMENT"),
		APIEndpoint:     v.GetString("API_ENDPOINT"),
		WebhookEndpoint: v.GetString("WEBHOOK_ENDPOINT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Version:         v.GetString("VERSION"),
	}

	if config.WebhookEndpoint == "" {
		config.WebhookEndpoint = config.APIEndpoint
	}

	return config, nil
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
