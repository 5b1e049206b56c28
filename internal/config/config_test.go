package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "RATE_LIMIT_PER_HOUR", "ANOMALY_THRESHOLD", "ANOMALY_WEIGHT_PENALTY",
		"MIN_RATE_COUNT", "PAGE_SIZE", "DATABASE_URL", "REDIS_URL", "NATS_URL",
		"SECRET_KEY", "HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "CONFIG_PATH")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Rating.RateLimitPerHour)
	assert.Equal(t, 0.8, cfg.Rating.AnomalyThreshold)
	assert.Equal(t, 20, cfg.Rating.PageSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	clearEnv(t, "RATE_LIMIT_PER_HOUR", "PAGE_SIZE", "CORS_ORIGINS", "HTTP_ADDR")

	os.Setenv("RATE_LIMIT_PER_HOUR", "500")
	os.Setenv("PAGE_SIZE", "10")
	os.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	os.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Rating.RateLimitPerHour)
	assert.Equal(t, 10, cfg.Rating.PageSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadReadsConfigFileBetweenDefaultsAndEnv(t *testing.T) {
	clearEnv(t, "RATE_LIMIT_PER_HOUR", "PAGE_SIZE", "CONFIG_PATH")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rating:\n  rate_limit_per_hour: 777\n  page_size: 15\n"), 0o600))
	os.Setenv("CONFIG_PATH", path)
	os.Setenv("PAGE_SIZE", "30") // env still wins over the file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 777, cfg.Rating.RateLimitPerHour, "file layer overrides defaults")
	assert.Equal(t, 30, cfg.Rating.PageSize, "env layer overrides the file")
}

func TestDatabaseConfigDSNPrefersURL(t *testing.T) {
	withURL := DatabaseConfig{URL: "postgres://example"}
	assert.Equal(t, "postgres://example", withURL.DSN())

	withoutURL := DatabaseConfig{Host: "db", Port: 5432, Name: "ratings", User: "app", Password: "secret", SSLMode: "disable"}
	assert.Contains(t, withoutURL.DSN(), "host=db")
	assert.Contains(t, withoutURL.DSN(), "dbname=ratings")
}

func TestValidateRejectsFatalMisconfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"zero rate limit", &Config{Rating: RatingConfig{RateLimitPerHour: 0, AnomalyThreshold: 0.5, AnomalyWeightPenalty: 0.1}}},
		{"threshold at boundary", &Config{Rating: RatingConfig{RateLimitPerHour: 1, AnomalyThreshold: 1, AnomalyWeightPenalty: 0.1}}},
		{"penalty out of range", &Config{Rating: RatingConfig{RateLimitPerHour: 1, AnomalyThreshold: 0.5, AnomalyWeightPenalty: 1.5}}},
		{"negative min rate count", &Config{Rating: RatingConfig{RateLimitPerHour: 1, AnomalyThreshold: 0.5, AnomalyWeightPenalty: 0.1, MinRateCount: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, defaultConfig().Validate())
}

func TestStreamConfigDefaults(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, 5, cfg.Stream.MaxStartupAttempts)
	assert.Equal(t, 5*time.Second, cfg.Stream.ReconnectWait)
}
