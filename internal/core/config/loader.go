package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/kafkaguard/internal/kafka/retry"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultMaxRetries is the retry budget used when none is configured.
const DefaultMaxRetries = 3

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Kafka.ProbeInterval == 0 {
		cfg.Kafka.ProbeInterval = 30 * time.Second
	}

	if cfg.Retry.MaxRetries == nil {
		n := DefaultMaxRetries
		cfg.Retry.MaxRetries = &n
	}
	if cfg.Retry.Sleep == nil {
		d := retry.DefaultSleep
		cfg.Retry.Sleep = &d
	}

	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = BackendMemory
	}
	if cfg.Journal.Prefix == "" {
		cfg.Journal.Prefix = "kafkaguard"
	}
}

func (cfg *AppConfig) validate() error {
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers: at least one broker is required")
	}
	if *cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries: must not be negative, got %d", *cfg.Retry.MaxRetries)
	}
	if *cfg.Retry.Sleep < 0 {
		return fmt.Errorf("retry.sleep: must not be negative, got %s", *cfg.Retry.Sleep)
	}

	switch cfg.Journal.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Redis.URL == "" {
			return fmt.Errorf("redis.url: required by the redis journal backend")
		}
	case BackendPostgres:
		if cfg.Postgres.URL == "" {
			return fmt.Errorf("postgres.url: required by the postgres journal backend")
		}
	default:
		return fmt.Errorf("journal.backend: unknown backend %q", cfg.Journal.Backend)
	}
	return nil
}
