package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Log        LogConfig
	Auth       AuthConfig
	Moderation ModerationConfig
	Advisory   AdvisoryConfig
	RateLimit  RateLimitConfig
	Render     RenderConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	RetryBackoff time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
}

// ModerationConfig holds the comment pipeline thresholds
type ModerationConfig struct {
	EditWindow             time.Duration
	ReportThreshold        int
	RateLimitWindow        time.Duration
	RateLimitMax           int
	DuplicateWindow        time.Duration
	DuplicateLookback      int
	NewAccountAge          time.Duration
	EstablishedAccountAge  time.Duration
	EstablishedMinComments int
	MaxReportedComments    int
	MaxContentLength       int
	FilterCacheTTL         time.Duration
}

// AdvisoryConfig holds the optional toxicity scorer settings.
// An empty URL disables the scorer.
type AdvisoryConfig struct {
	URL             string
	APIKey          string
	Timeout         time.Duration
	ReviewThreshold float64
}

// RateLimitConfig holds per-client request throttling
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	MaxClients        int
}

// RenderConfig holds markdown rendering settings
type RenderConfig struct {
	CacheSize int
}

// Load reads configuration from environment variables, falling back to Default.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	d := Default()
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", d.Server.Port),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", d.Server.ReadTimeout),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", d.Server.WriteTimeout),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", d.Server.ShutdownTimeout),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", d.Server.MigrationsPath),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", d.Database.Host),
			Port:         getEnv("DB_PORT", d.Database.Port),
			User:         getEnv("DB_USER", d.Database.User),
			Password:     getEnv("DB_PASSWORD", d.Database.Password),
			Name:         getEnv("DB_NAME", d.Database.Name),
			SSLMode:      getEnv("DB_SSLMODE", d.Database.SSLMode),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", d.Database.MaxLifetime),
			RetryBackoff: getDurationEnv("DB_RETRY_BACKOFF", d.Database.RetryBackoff),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", d.Log.Level),
			Format: getEnv("LOG_FORMAT", d.Log.Format),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", d.Auth.JWTSecret),
		},
		Moderation: ModerationConfig{
			EditWindow:             getDurationEnv("EDIT_WINDOW", d.Moderation.EditWindow),
			ReportThreshold:        getIntEnv("REPORT_THRESHOLD", d.Moderation.ReportThreshold),
			RateLimitWindow:        getDurationEnv("COMMENT_RATE_WINDOW", d.Moderation.RateLimitWindow),
			RateLimitMax:           getIntEnv("COMMENT_RATE_MAX", d.Moderation.RateLimitMax),
			DuplicateWindow:        getDurationEnv("DUPLICATE_WINDOW", d.Moderation.DuplicateWindow),
			DuplicateLookback:      getIntEnv("DUPLICATE_LOOKBACK", d.Moderation.DuplicateLookback),
			NewAccountAge:          getDurationEnv("NEW_ACCOUNT_AGE", d.Moderation.NewAccountAge),
			EstablishedAccountAge:  getDurationEnv("ESTABLISHED_ACCOUNT_AGE", d.Moderation.EstablishedAccountAge),
			EstablishedMinComments: getIntEnv("ESTABLISHED_MIN_COMMENTS", d.Moderation.EstablishedMinComments),
			MaxReportedComments:    getIntEnv("MAX_REPORTED_COMMENTS", d.Moderation.MaxReportedComments),
			MaxContentLength:       getIntEnv("MAX_CONTENT_LENGTH", d.Moderation.MaxContentLength),
			FilterCacheTTL:         getDurationEnv("FILTER_CACHE_TTL", d.Moderation.FilterCacheTTL),
		},
		Advisory: AdvisoryConfig{
			URL:             getEnv("ADVISORY_URL", d.Advisory.URL),
			APIKey:          getEnv("ADVISORY_API_KEY", d.Advisory.APIKey),
			Timeout:         getDurationEnv("ADVISORY_TIMEOUT", d.Advisory.Timeout),
			ReviewThreshold: getFloatEnv("ADVISORY_REVIEW_THRESHOLD", d.Advisory.ReviewThreshold),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", d.RateLimit.Enabled),
			RequestsPerSecond: getFloatEnv("RATE_LIMIT_RPS", d.RateLimit.RequestsPerSecond),
			Burst:             getIntEnv("RATE_LIMIT_BURST", d.RateLimit.Burst),
			MaxClients:        getIntEnv("RATE_LIMIT_MAX_CLIENTS", d.RateLimit.MaxClients),
		},
		Render: RenderConfig{
			CacheSize: getIntEnv("RENDER_CACHE_SIZE", d.Render.CacheSize),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with built-in defaults and no environment lookup
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MigrationsPath:  "./migrations",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			Name:         "comment_moderation",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			MaxLifetime:  5 * time.Minute,
			RetryBackoff: 50 * time.Millisecond,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Moderation: ModerationConfig{
			EditWindow:             15 * time.Minute,
			ReportThreshold:        3,
			RateLimitWindow:        10 * time.Minute,
			RateLimitMax:           10,
			DuplicateWindow:        24 * time.Hour,
			DuplicateLookback:      20,
			NewAccountAge:          7 * 24 * time.Hour,
			EstablishedAccountAge:  90 * 24 * time.Hour,
			EstablishedMinComments: 20,
			MaxReportedComments:    5,
			MaxContentLength:       2000,
			FilterCacheTTL:         time.Minute,
		},
		Advisory: AdvisoryConfig{
			Timeout:         2 * time.Second,
			ReviewThreshold: 0.7,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             20,
			MaxClients:        10000,
		},
		Render: RenderConfig{CacheSize: 1024},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	m := c.Moderation
	if m.EditWindow <= 0 {
		return fmt.Errorf("EDIT_WINDOW must be positive")
	}
	if m.ReportThreshold < 1 {
		return fmt.Errorf("REPORT_THRESHOLD must be at least 1")
	}
	if m.RateLimitMax < 1 || m.RateLimitWindow <= 0 {
		return fmt.Errorf("COMMENT_RATE_MAX and COMMENT_RATE_WINDOW must be positive")
	}
	if m.DuplicateLookback < 1 || m.DuplicateWindow <= 0 {
		return fmt.Errorf("DUPLICATE_LOOKBACK and DUPLICATE_WINDOW must be positive")
	}
	if m.EstablishedAccountAge < m.NewAccountAge {
		return fmt.Errorf("ESTABLISHED_ACCOUNT_AGE must not be shorter than NEW_ACCOUNT_AGE")
	}
	if m.MaxReportedComments < 0 {
		return fmt.Errorf("MAX_REPORTED_COMMENTS must not be negative")
	}
	if m.MaxContentLength < 1 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be positive")
	}
	if c.Advisory.URL != "" && c.Advisory.Timeout <= 0 {
		return fmt.Errorf("ADVISORY_TIMEOUT must be positive when ADVISORY_URL is set")
	}
	if c.Advisory.ReviewThreshold < 0 || c.Advisory.ReviewThreshold > 1 {
		return fmt.Errorf("ADVISORY_REVIEW_THRESHOLD must be within [0,1]")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
