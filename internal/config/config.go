// Package config loads layered configuration (defaults, then an optional
// YAML file, then environment variables) for the rating pipeline using
// koanf.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for an optional YAML config
// file, in priority order. The first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/content-rating/config.yaml",
	"/etc/content-rating/config.yml",
}

// ConfigPathEnvVar names the environment variable that overrides the
// searched config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// RatingConfig holds the admission-weight and anomaly-detection knobs.
type RatingConfig struct {
	RateLimitPerHour     int     `koanf:"rate_limit_per_hour"`
	AnomalyWeightPenalty float64 `koanf:"anomaly_weight_penalty"`
	AnomalyThreshold     float64 `koanf:"anomaly_threshold"`
	MinRateCount         int     `koanf:"min_rate_count"`
	PageSize             int     `koanf:"page_size"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"ssl_mode"`

	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnTimeout  time.Duration `koanf:"conn_timeout"`
}

// DSN returns the connection string, preferring an explicit URL when set.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

// CacheConfig holds the Redis stats-cache settings.
type CacheConfig struct {
	RedisURL string        `koanf:"redis_url"`
	TTL      time.Duration `koanf:"ttl"`
}

// StreamConfig holds event-stream (NATS JetStream) settings.
type StreamConfig struct {
	NATSURL            string   `koanf:"nats_url"`
	KafkaBootstrap     []string `koanf:"kafka_bootstrap_servers"`
	Topic              string   `koanf:"topic"`
	ConsumerGroup      string   `koanf:"consumer_group"`
	DurableName        string   `koanf:"durable_name"`
	SessionTimeout     time.Duration `koanf:"session_timeout"`
	HeartbeatInterval  time.Duration `koanf:"heartbeat_interval"`
	ReconnectWait      time.Duration `koanf:"reconnect_wait"`
	MaxStartupAttempts int           `koanf:"max_startup_attempts"`
}

// SecurityConfig holds JWT and token-lifetime settings.
type SecurityConfig struct {
	SecretKey           string        `koanf:"secret_key"`
	AccessTokenLifetime time.Duration `koanf:"access_token_lifetime"`
	RefreshTokenLifetime time.Duration `koanf:"refresh_token_lifetime"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Rating   RatingConfig   `koanf:"rating"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Stream   StreamConfig   `koanf:"stream"`
	Security SecurityConfig `koanf:"security"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Rating: RatingConfig{
			RateLimitPerHour:     10000,
			AnomalyWeightPenalty: 0.001,
			AnomalyThreshold:     0.8,
			MinRateCount:         10,
			PageSize:             20,
		},
		Database: DatabaseConfig{
			Host:         "127.0.0.1",
			Port:         5432,
			Name:         "content_rating",
			User:         "postgres",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			ConnTimeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			RedisURL: "redis://127.0.0.1:6379/0",
			TTL:      time.Hour,
		},
		Stream: StreamConfig{
			NATSURL:            "nats://127.0.0.1:4222",
			Topic:              "ratings",
			ConsumerGroup:      "rating_processor_group",
			DurableName:        "rating_processor",
			SessionTimeout:     30 * time.Second,
			HeartbeatInterval:  10 * time.Second,
			ReconnectWait:      5 * time.Second,
			MaxStartupAttempts: 5,
		},
		Security: SecurityConfig{
			SecretKey:            "",
			AccessTokenLifetime:  15 * time.Minute,
			RefreshTokenLifetime: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envAliases maps the flat, spec-mandated environment variable names onto
// their nested koanf path, since the recognized keys (RATE_LIMIT_PER_HOUR,
// DATABASE_URL, ...) don't follow a SECTION_FIELD convention.
var envAliases = map[string]string{
	"RATE_LIMIT_PER_HOUR":      "rating.rate_limit_per_hour",
	"ANOMALY_WEIGHT_PENALTY":   "rating.anomaly_weight_penalty",
	"ANOMALY_THRESHOLD":        "rating.anomaly_threshold",
	"MIN_RATE_COUNT":           "rating.min_rate_count",
	"PAGE_SIZE":                "rating.page_size",
	"DATABASE_URL":             "database.url",
	"POSTGRES_DB":              "database.name",
	"POSTGRES_USER":            "database.user",
	"POSTGRES_PASSWORD":        "database.password",
	"POSTGRES_HOST":            "database.host",
	"POSTGRES_PORT":            "database.port",
	"REDIS_URL":                "cache.redis_url",
	"NATS_URL":                 "stream.nats_url",
	"KAFKA_BOOTSTRAP_SERVERS":  "stream.kafka_bootstrap_servers",
	"SECRET_KEY":               "security.secret_key",
	"ACCESS_TOKEN_LIFETIME":    "security.access_token_lifetime",
	"REFRESH_TOKEN_LIFETIME":   "security.refresh_token_lifetime",
	"HTTP_ADDR":                "server.addr",
	"CORS_ORIGINS":             "server.cors_origins",
	"LOG_LEVEL":                "logging.level",
	"LOG_FORMAT":               "logging.format",
}

// Load builds the configuration by layering, highest priority last:
// built-in defaults, an optional YAML config file, then environment
// variables (§6's recognized keys always win over a checked-in file).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(key string) string {
		if path, ok := envAliases[key]; ok {
			return path
		}
		return ""
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}

	if v, ok := k.Get("stream.kafka_bootstrap_servers").(string); ok && v != "" {
		k.Set("stream.kafka_bootstrap_servers", splitCSV(v))
	}
	if v, ok := k.Get("server.cors_origins").(string); ok && v != "" {
		k.Set("server.cors_origins", splitCSV(v))
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path: CONFIG_PATH
// if set and present, otherwise the first of DefaultConfigPaths that
// exists. Returns "" when no file is found, in which case Load runs on
// defaults and environment variables alone.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks fatal misconfiguration that must abort startup (§7, error
// taxonomy class "Fatal").
func (c *Config) Validate() error {
	if c.Rating.RateLimitPerHour <= 0 {
		return fmt.Errorf("rating.rate_limit_per_hour must be positive")
	}
	if c.Rating.AnomalyThreshold <= 0 || c.Rating.AnomalyThreshold >= 1 {
		return fmt.Errorf("rating.anomaly_threshold must be in (0,1)")
	}
	if c.Rating.AnomalyWeightPenalty <= 0 || c.Rating.AnomalyWeightPenalty > 1 {
		return fmt.Errorf("rating.anomaly_weight_penalty must be in (0,1]")
	}
	if c.Rating.MinRateCount < 0 {
		return fmt.Errorf("rating.min_rate_count must be non-negative")
	}
	return nil
}
