package xshmem

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/logger"
)

const (
	defaultRetryInterval = 500 * time.Millisecond
)

// Config is the explicit configuration a program passes to Selector.Open.
type Config struct {
	// Library names the backend. Empty defers to the environment variable.
	Library string `yaml:"library"`
	// EnvVar overrides the environment variable consulted when Library is empty.
	EnvVar   string      `yaml:"env_var"`
	LogLevel string      `yaml:"log_level"`
	Retry    RetryConfig `yaml:"retry"`
	Queue    QueueConfig `yaml:"queue"`
	Admin    AdminConfig `yaml:"admin"`
}

// RetryConfig controls InitWithRetry.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Interval   time.Duration `yaml:"interval"`
}

// QueueConfig sizes the accelerator queue used by device-side programs.
type QueueConfig struct {
	Workers int  `yaml:"workers"`
	InOrder bool `yaml:"in_order"`
}

// AdminConfig enables the health and metrics listener when Addr is set.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a config that defers the library choice to the environment.
func DefaultConfig() *Config {
	return &Config{
		EnvVar:   api.EnvLibrary,
		LogLevel: "info",
		Retry: RetryConfig{
			Interval: defaultRetryInterval,
		},
		Queue: QueueConfig{
			InOrder: true,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := VerifyConfig(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// VerifyConfig checks cfg for values no selection could accept.
func VerifyConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if cfg.Library != "" {
		if _, err := api.ParseLibrary(cfg.Library); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.LogLevel != "" {
		if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries %d is negative", cfg.Retry.MaxRetries))
	}
	if cfg.Retry.MaxRetries > 0 && cfg.Retry.Interval <= 0 {
		errs = append(errs, fmt.Errorf("retry.interval %s must be positive", cfg.Retry.Interval))
	}
	if cfg.Queue.Workers < 0 {
		errs = append(errs, fmt.Errorf("queue.workers %d is negative", cfg.Queue.Workers))
	}
	return errors.Join(errs...)
}
