package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// defaultSecret is the development-only signing secret. Load rejects it
// outside development mode.
const defaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the profile service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"PROFILE_HTTP_PORT" envDefault:"8000"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"beemstream"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"beemstream_secret"`
	PostgresDB   string `env:"PROFILE_DB_NAME" envDefault:"profile_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"5"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	AuthSecretKey      string `env:"AUTH_SECRET_KEY" envDefault:"change-this-to-a-secure-secret"`
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" envDefault:"10m"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Twitch OAuth
	TwitchClientID     string `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string `env:"TWITCH_CLIENT_SECRET"`
	TwitchCallbackURL  string `env:"TWITCH_CALLBACK_URL"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load profile config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	if _, err := time.ParseDuration(cfg.AccessTokenExpiry); err != nil {
		return nil, fmt.Errorf("parse access token expiry %q: %w", cfg.AccessTokenExpiry, err)
	}
	if _, err := time.ParseDuration(cfg.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("parse refresh token expiry %q: %w", cfg.RefreshTokenExpiry, err)
	}

	// In non-development environments, require an explicitly set, strong secret.
	if cfg.Environment != "development" {
		if cfg.AuthSecretKey == defaultSecret {
			return nil, fmt.Errorf("AUTH_SECRET_KEY must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.AuthSecretKey) < 32 {
			return nil, fmt.Errorf("AUTH_SECRET_KEY must be at least 32 characters long, got %d", len(cfg.AuthSecretKey))
		}
	}

	return cfg, nil
}

// AccessTTL returns the parsed access token duration.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.AccessTokenExpiry)
	return d
}

// RefreshTTL returns the parsed refresh token duration.
func (c *Config) RefreshTTL() time.Duration {
	d, _ := time.ParseDuration(c.RefreshTokenExpiry)
	return d
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
