package config

import (
	"time"

	redisclient "github.com/vietddude/kafkaguard/internal/infra/redis"
	"github.com/vietddude/kafkaguard/internal/infra/storage/postgres"
	"github.com/vietddude/kafkaguard/internal/kafka/client"
	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
	"github.com/vietddude/kafkaguard/internal/kafka/retry"
	"github.com/vietddude/kafkaguard/internal/kafka/selector"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Runtime  RuntimeConfig      `yaml:"runtime"`
	Kafka    KafkaConfig        `yaml:"kafka"`
	Retry    RetryConfig        `yaml:"retry"`
	Journal  JournalConfig      `yaml:"journal"`
	Redis    redisclient.Config `yaml:"redis"`
	Postgres postgres.Config    `yaml:"postgres"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RuntimeConfig controls the scheduling regime.
type RuntimeConfig struct {
	Cooperative      bool `yaml:"cooperative"`       // run probes as scheduler tasks
	DisableDetection bool `yaml:"disable_detection"` // always report the blocking regime
}

// KafkaConfig holds broker and client settings.
type KafkaConfig struct {
	Brokers        []string           `yaml:"brokers"`
	ClientID       string             `yaml:"client_id"`
	ConnectTimeout time.Duration      `yaml:"connect_timeout"`
	SendTimeout    time.Duration      `yaml:"send_timeout"`
	RecvTimeout    time.Duration      `yaml:"recv_timeout"`
	ProbeInterval  time.Duration      `yaml:"probe_interval"`
	Overrides      selector.Overrides `yaml:"overrides"`
}

// ClientConfig returns the client settings for one broker.
func (c KafkaConfig) ClientConfig(broker string) client.Config {
	return client.Config{
		Broker:         broker,
		ClientID:       c.ClientID,
		ConnectTimeout: c.ConnectTimeout,
		SendTimeout:    c.SendTimeout,
		RecvTimeout:    c.RecvTimeout,
	}
}

// RetryConfig holds the retry policy.
type RetryConfig struct {
	MaxRetries              *int           `yaml:"max_retries"`
	Sleep                   *time.Duration `yaml:"sleep"` // 0 resends immediately
	CallbacksOnEveryAttempt bool           `yaml:"callbacks_on_every_attempt"`
	IgnoreCodes             []int16        `yaml:"ignore_codes"` // error codes accepted as a result
}

// Policy builds the retry policy. Load must have applied defaults.
func (c RetryConfig) Policy() retry.Policy {
	p := retry.DefaultPolicy(*c.MaxRetries)
	p.Sleep = *c.Sleep
	p.CallbacksOnEveryAttempt = c.CallbacksOnEveryAttempt

	if len(c.IgnoreCodes) > 0 {
		codes := make([]protocol.ErrorCode, len(c.IgnoreCodes))
		for i, code := range c.IgnoreCodes {
			codes[i] = protocol.ErrorCode(code)
		}
		p.Callbacks = retry.ConfirmCodes(codes...)
	}
	return p
}

// JournalConfig selects where terminal failures are recorded.
type JournalConfig struct {
	Backend string        `yaml:"backend"` // memory, redis, postgres
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}
