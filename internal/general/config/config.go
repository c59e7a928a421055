package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config covers both run modes. The agent reads api/telemetry/tracking/
// ledger/agent; the relay reads relay/rabbitmq/database/jwt.
type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url" validate:"required,url"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=120"`
	} `yaml:"api"`

	Telemetry struct {
		URL               string `yaml:"url" validate:"required"`
		RetryAttempts     int    `yaml:"retry_attempts" validate:"gte=1,lte=20"`
		RetryDelaySeconds int    `yaml:"retry_delay_seconds" validate:"gte=1,lte=60"`
	} `yaml:"telemetry"`

	Tracking struct {
		MinIntervalSeconds int     `yaml:"min_interval_seconds" validate:"gte=1"`
		MinDistanceMeters  float64 `yaml:"min_distance_meters" validate:"gte=1"`
		GpsdAddr           string  `yaml:"gpsd_addr"`
	} `yaml:"tracking"`

	Ledger struct {
		// RollbackOnFailure selects the failed-confirmation policy:
		// false keeps the optimistic local COMPLETED (default), true
		// resets the stop to PENDING so the crew retries.
		RollbackOnFailure bool `yaml:"rollback_on_failure"`
	} `yaml:"ledger"`

	Agent struct {
		Port      int    `yaml:"port" validate:"gte=1,lte=65535"`
		StateFile string `yaml:"state_file"`
	} `yaml:"agent"`

	Relay struct {
		Port int `yaml:"port" validate:"gte=1,lte=65535"`
	} `yaml:"relay"`

	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`

	JWT struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"jwt"`
}

// LoadFromFile loads config from a YAML file, applies defaults, and
// validates required fields and ranges.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// APITimeout returns the remote store call timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// TelemetryRetryDelay returns the fixed delay between reconnect attempts.
func (c *Config) TelemetryRetryDelay() time.Duration {
	return time.Duration(c.Telemetry.RetryDelaySeconds) * time.Second
}

// TrackingMinInterval returns the time threshold of the sampling debounce.
func (c *Config) TrackingMinInterval() time.Duration {
	return time.Duration(c.Tracking.MinIntervalSeconds) * time.Second
}

// applyDefaults sets safe defaults for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 10
	}

	// the original client retried 5 times with a 1-second delay
	if cfg.Telemetry.RetryAttempts == 0 {
		cfg.Telemetry.RetryAttempts = 5
	}
	if cfg.Telemetry.RetryDelaySeconds == 0 {
		cfg.Telemetry.RetryDelaySeconds = 1
	}

	if cfg.Tracking.MinIntervalSeconds == 0 {
		cfg.Tracking.MinIntervalSeconds = 10
	}
	if cfg.Tracking.MinDistanceMeters == 0 {
		cfg.Tracking.MinDistanceMeters = 50
	}
	if cfg.Tracking.GpsdAddr == "" {
		cfg.Tracking.GpsdAddr = "localhost:2947"
	}

	if cfg.Agent.Port == 0 {
		cfg.Agent.Port = 3002
	}
	if cfg.Agent.StateFile == "" {
		cfg.Agent.StateFile = "agent_state.json"
	}

	if cfg.Relay.Port == 0 {
		cfg.Relay.Port = 3003
	}

	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
}
