package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "pmforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a flag or the default
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty, parseable env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PMFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "PMFORGE_CORS_ORIGIN")
	setInt64(&cfg.Server.MaxBodyBytes, "PMFORGE_MAX_BODY_BYTES")
	setDuration(&cfg.Server.Timeout, "PMFORGE_REQUEST_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PMFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PMFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PMFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PMFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PMFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "PMFORGE_NATS_STREAM")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "PMFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "PMFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "PMFORGE_CACHE_L2_TTL")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "PMFORGE_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "PMFORGE_IDEMPOTENCY_TTL")

	setString(&cfg.Logging.Level, "PMFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PMFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PMFORGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "PMFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PMFORGE_BREAKER_TIMEOUT")

	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Insecure, "PMFORGE_OTEL_INSECURE")
	setFloat64(&cfg.OTel.SampleRatio, "PMFORGE_OTEL_SAMPLE_RATIO")

	setBool(&cfg.MCP.Enabled, "PMFORGE_MCP_ENABLED")
	setString(&cfg.MCP.APIKey, "PMFORGE_MCP_API_KEY")

	// Client
	setString(&cfg.Client.APIURL, "PMFORGE_API_URL")
	setString(&cfg.Client.AgentURL, "PMFORGE_AGENT_URL")
	setDuration(&cfg.Client.RequestTimeout, "PMFORGE_CLIENT_TIMEOUT")
	setDuration(&cfg.Client.AgentTimeout, "PMFORGE_AGENT_TIMEOUT")
	setInt(&cfg.Client.NotifyBuffer, "PMFORGE_NOTIFY_BUFFER")
	setString(&cfg.Client.SlackWebhook, "PMFORGE_SLACK_WEBHOOK")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Server.MaxBodyBytes < 1 {
		return errors.New("server.max_body_bytes must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.OTel.SampleRatio < 0 || cfg.OTel.SampleRatio > 1 {
		return errors.New("otel.sample_ratio must be within [0, 1]")
	}
	if cfg.Client.APIURL == "" {
		return errors.New("client.api_url is required")
	}
	if cfg.Client.AgentURL == "" {
		return errors.New("client.agent_url is required")
	}
	if cfg.Client.NotifyBuffer < 1 {
		return errors.New("client.notify_buffer must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
