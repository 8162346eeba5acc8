// Package config loads and validates perfgate settings from environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/perfgate/perfgate/notify"
	"github.com/perfgate/perfgate/redis"
)

const envPrefix = "WPM_"

// DedupBackend selects where last-alert timestamps live.
const (
	DedupBackendMemory = "memory"
	DedupBackendRedis  = "redis"
)

type Config struct {
	// Alert decision
	ThresholdSeconds       float64 `yaml:"threshold_seconds" env:"THRESHOLD_SECONDS"`
	AlertWindowDays        int     `yaml:"alert_window_days" env:"ALERT_WINDOW_DAYS"`
	MaxPerformanceOverhead float64 `yaml:"max_performance_overhead" env:"MAX_PERFORMANCE_OVERHEAD"`

	// Delivery
	MaxRetries            int `yaml:"max_retries" env:"MAX_RETRIES"`
	DeliveryBudgetSeconds int `yaml:"delivery_budget_seconds" env:"DELIVERY_BUDGET_SECONDS"`

	// Channels
	EnableLocalFile  bool                    `yaml:"enable_local_file" env:"ENABLE_LOCAL_FILE"`
	LocalFile        notify.LocalFileConfig  `yaml:"local_file"`
	EnableMattermost bool                    `yaml:"enable_mattermost" env:"ENABLE_MATTERMOST"`
	Mattermost       notify.MattermostConfig `yaml:"mattermost"`

	// Deduplication
	DedupBackend string            `yaml:"dedup_backend" env:"DEDUP_BACKEND"`
	Redis        redis.RedisConfig `yaml:"redis"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	configPath string
	validated  bool
}

func defaults() Config {
	return Config{
		ThresholdSeconds:       1.0,
		AlertWindowDays:        10,
		MaxPerformanceOverhead: 0.05,
		MaxRetries:             3,
		DeliveryBudgetSeconds:  30,
		EnableLocalFile:        true,
		LocalFile:              notify.LocalFileConfig{OutputDir: os.TempDir()},
		DedupBackend:           DedupBackendMemory,
		LogLevel:               "info",
	}
}

// ParseOption adjusts how Parse resolves configuration sources.
type ParseOption func(o *parseOptions)

type parseOptions struct {
	configPath string
	skipDotEnv bool
}

// WithConfigFile points Parse at a YAML configuration file.
func WithConfigFile(path string) ParseOption {
	return func(o *parseOptions) {
		o.configPath = path
	}
}

// WithoutDotEnv disables loading a .env file from the working directory.
func WithoutDotEnv() ParseOption {
	return func(o *parseOptions) {
		o.skipDotEnv = true
	}
}

// Parse builds a validated Config. Precedence, lowest first: built-in
// defaults, YAML file, environment variables (WPM_ prefix, optionally
// sourced from a .env file).
func Parse(opts ...ParseOption) (*Config, error) {
	options := &parseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if !options.skipDotEnv {
		// Missing .env is the normal case.
		godotenv.Load()
	}

	config := defaults()

	if options.configPath != "" {
		data, err := os.ReadFile(options.configPath)
		if err != nil {
			return nil, &ConfigurationError{Field: "config_file", Reason: err.Error()}
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, &ConfigurationError{Field: "config_file", Reason: err.Error()}
		}
		config.configPath = options.configPath
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: envPrefix}); err != nil {
		return nil, &ConfigurationError{Field: "environment", Reason: err.Error()}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// AlertWindow converts the configured day count to a duration.
func (c *Config) AlertWindow() time.Duration {
	return time.Duration(c.AlertWindowDays) * 24 * time.Hour
}

// DeliveryBudget converts the configured per-channel budget to a duration.
func (c *Config) DeliveryBudget() time.Duration {
	return time.Duration(c.DeliveryBudgetSeconds) * time.Second
}

// Notifiers returns the channel configurations for every enabled notifier.
func (c *Config) Notifiers() []notify.ChannelConfig {
	var channels []notify.ChannelConfig
	if c.EnableLocalFile {
		localFile := c.LocalFile
		channels = append(channels, notify.ChannelConfig{
			Type:      "local_file",
			LocalFile: &localFile,
		})
	}
	if c.EnableMattermost {
		mattermost := c.Mattermost
		channels = append(channels, notify.ChannelConfig{
			Type:       "mattermost",
			Mattermost: &mattermost,
		})
	}
	return channels
}

func (c *Config) ConfigFilePath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return fmt.Sprintf("none (using defaults and %s* environment variables)", envPrefix)
}
