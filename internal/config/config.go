package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Eredeti Csakra backend.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Mail      MailConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AdminConfig configures the admin dashboard gate.
type AdminConfig struct {
	Enabled      bool
	Email        string
	PasswordHash string // bcrypt hash of the admin password
	JWTSecret    string
	SessionTTL   time.Duration
}

type RateLimitConfig struct {
	Enabled     bool
	PublicRPS   float64
	PublicBurst int
	AdminRPS    float64
	AdminBurst  int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// MailConfig configures the transactional mail collaborator (Resend).
type MailConfig struct {
	APIKey      string
	BaseURL     string
	FromAddress string
	FromName    string
	SendDelay   time.Duration
	Unsubscribe string // base URL embedded into newsletter footers
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("CSAKRA_HTTP_ADDR", ":8080"),
			Env:             getEnv("CSAKRA_ENV", "development"),
			ShutdownTimeout: getDurationEnv("CSAKRA_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("CSAKRA_DB_HOST", "localhost"),
			Port:     getIntEnv("CSAKRA_DB_PORT", 5432),
			User:     getEnv("CSAKRA_DB_USER", "csakra"),
			Password: getEnv("CSAKRA_DB_PASSWORD", "csakra_secret"),
			DBName:   getEnv("CSAKRA_DB_NAME", "csakra"),
			SSLMode:  getEnv("CSAKRA_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("CSAKRA_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("CSAKRA_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("CSAKRA_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("CSAKRA_REDIS_PASSWORD", ""),
			DB:       getIntEnv("CSAKRA_REDIS_DB", 0),
		},
		Admin: AdminConfig{
			Enabled:      getBoolEnv("CSAKRA_ADMIN_ENABLED", true),
			Email:        getEnv("CSAKRA_ADMIN_EMAIL", ""),
			PasswordHash: getEnv("CSAKRA_ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("CSAKRA_ADMIN_JWT_SECRET", ""),
			SessionTTL:   getDurationEnv("CSAKRA_ADMIN_SESSION_TTL", 8*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getBoolEnv("CSAKRA_RATE_LIMIT_ENABLED", true),
			PublicRPS:   getFloatEnv("CSAKRA_RATE_LIMIT_PUBLIC_RPS", 100),
			PublicBurst: getIntEnv("CSAKRA_RATE_LIMIT_PUBLIC_BURST", 50),
			AdminRPS:    getFloatEnv("CSAKRA_RATE_LIMIT_ADMIN_RPS", 25),
			AdminBurst:  getIntEnv("CSAKRA_RATE_LIMIT_ADMIN_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("CSAKRA_LOG_LEVEL", "info"),
			Format: getEnv("CSAKRA_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("CSAKRA_METRICS_ENABLED", true),
			Path:    getEnv("CSAKRA_METRICS_PATH", "/metrics"),
		},
		Mail: MailConfig{
			APIKey:      getEnv("CSAKRA_RESEND_API_KEY", ""),
			BaseURL:     getEnv("CSAKRA_RESEND_BASE_URL", "https://api.resend.com"),
			FromAddress: getEnv("CSAKRA_MAIL_FROM", "hello@eredeticsakra.hu"),
			FromName:    getEnv("CSAKRA_MAIL_FROM_NAME", "Eredeti Csakra"),
			SendDelay:   getDurationEnv("CSAKRA_MAIL_SEND_DELAY", 600*time.Millisecond),
			Unsubscribe: getEnv("CSAKRA_MAIL_UNSUBSCRIBE_URL", "https://eredeticsakra.hu/leiratkozas"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Admin.Enabled {
		if c.Admin.Email == "" || c.Admin.PasswordHash == "" {
			return fmt.Errorf("CSAKRA_ADMIN_EMAIL and CSAKRA_ADMIN_PASSWORD_HASH are required when the admin gate is enabled")
		}
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("CSAKRA_ADMIN_JWT_SECRET is required when the admin gate is enabled")
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
