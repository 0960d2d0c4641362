package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, def.Log, cfg.Log)
	assert.Equal(t, def.Moderation, cfg.Moderation)
	assert.Equal(t, def.Advisory, cfg.Advisory)
	assert.Equal(t, def.RateLimit, cfg.RateLimit)
	assert.Equal(t, def.Render, cfg.Render)
	assert.Equal(t, 5, cfg.Moderation.MaxReportedComments)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EDIT_WINDOW", "30m")
	t.Setenv("REPORT_THRESHOLD", "5")
	t.Setenv("ADVISORY_REVIEW_THRESHOLD", "0.55")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MAX_REPORTED_COMMENTS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Moderation.EditWindow)
	assert.Equal(t, 5, cfg.Moderation.ReportThreshold)
	assert.InDelta(t, 0.55, cfg.Advisory.ReviewThreshold, 1e-9)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 8, cfg.Moderation.MaxReportedComments)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("REPORT_THRESHOLD", "three")
	t.Setenv("EDIT_WINDOW", "soon")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Moderation.ReportThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Moderation.EditWindow)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("REPORT_THRESHOLD", "0")

	_, err := Load()
	assert.EqualError(t, err, "REPORT_THRESHOLD must be at least 1")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Database.Host = "" }, "DB_HOST is required"},
		{"zero edit window", func(c *Config) { c.Moderation.EditWindow = 0 }, "EDIT_WINDOW must be positive"},
		{"zero rate max", func(c *Config) { c.Moderation.RateLimitMax = 0 }, "COMMENT_RATE_MAX and COMMENT_RATE_WINDOW must be positive"},
		{"account ages inverted", func(c *Config) { c.Moderation.EstablishedAccountAge = time.Hour }, "ESTABLISHED_ACCOUNT_AGE must not be shorter than NEW_ACCOUNT_AGE"},
		{"negative reported limit", func(c *Config) { c.Moderation.MaxReportedComments = -1 }, "MAX_REPORTED_COMMENTS must not be negative"},
		{"advisory without timeout", func(c *Config) {
			c.Advisory.URL = "http://scorer.local"
			c.Advisory.Timeout = 0
		}, "ADVISORY_TIMEOUT must be positive when ADVISORY_URL is set"},
		{"threshold out of range", func(c *Config) { c.Advisory.ReviewThreshold = 1.5 }, "ADVISORY_REVIEW_THRESHOLD must be within [0,1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=require", db.GetDSN())
}
