package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/WhisperLily/task-management-api/pkg/config"
)

// Config holds all configuration for the task management API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8000"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"taskapi"`
	PostgresPass     string `env:"POSTGRES_PASSWORD" envDefault:"taskapi_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"task_management"`
	PostgresSSL      string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"25"`
	PostgresMinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"5"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stats cache
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"60s"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret        string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"30m"`
	JWTRefreshExpiry string `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Login rate limiting
	AuthRateLimitRPS   int `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`

	// Tracing
	OTELEnabled  bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSample   float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	access, err := time.ParseDuration(cfg.JWTAccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}
	refresh, err := time.ParseDuration(cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_TOKEN_EXPIRY: %w", err)
	}
	if access <= 0 || refresh <= 0 {
		return nil, fmt.Errorf("token expiries must be positive")
	}
	if access >= refresh {
		return nil, fmt.Errorf("access token expiry (%s) must be shorter than refresh token expiry (%s)", access, refresh)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// AccessExpiry returns the parsed access token lifetime. Load validates the
// duration, so this only fails on a Config built without Load.
func (c *Config) AccessExpiry() (time.Duration, error) {
	return time.ParseDuration(c.JWTAccessExpiry)
}

// RefreshExpiry returns the parsed refresh token lifetime.
func (c *Config) RefreshExpiry() (time.Duration, error) {
	return time.ParseDuration(c.JWTRefreshExpiry)
}
