package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid setting. It is only ever surfaced at
// configuration time, never from the evaluation path.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	c.validated = false

	if err := c.validateAlerting(); err != nil {
		return err
	}

	if err := c.validateDelivery(); err != nil {
		return err
	}

	if err := c.validateChannels(); err != nil {
		return err
	}

	if err := c.validateDedup(); err != nil {
		return err
	}

	c.validated = true
	return nil
}

func (c *Config) validateAlerting() error {
	if c.AlertWindowDays < 0 {
		return &ConfigurationError{Field: "alert_window_days", Reason: "must not be negative"}
	}
	if c.MaxPerformanceOverhead < 0 || c.MaxPerformanceOverhead > 1 {
		return &ConfigurationError{Field: "max_performance_overhead", Reason: "must be between 0 and 1"}
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if c.MaxRetries < 0 {
		return &ConfigurationError{Field: "max_retries", Reason: "must not be negative"}
	}
	if c.DeliveryBudgetSeconds <= 0 {
		return &ConfigurationError{Field: "delivery_budget_seconds", Reason: "must be positive"}
	}
	return nil
}

func (c *Config) validateChannels() error {
	if c.EnableLocalFile && c.LocalFile.OutputDir == "" {
		return &ConfigurationError{Field: "local_file.output_dir", Reason: "required when local file channel is enabled"}
	}
	if c.EnableMattermost {
		if c.Mattermost.ServerURL == "" {
			return &ConfigurationError{Field: "mattermost.server_url", Reason: "required when mattermost channel is enabled"}
		}
		if !strings.HasPrefix(c.Mattermost.ServerURL, "http://") && !strings.HasPrefix(c.Mattermost.ServerURL, "https://") {
			return &ConfigurationError{Field: "mattermost.server_url", Reason: "must be an http(s) URL"}
		}
		if c.Mattermost.Token == "" {
			return &ConfigurationError{Field: "mattermost.token", Reason: "required when mattermost channel is enabled"}
		}
		if c.Mattermost.ChannelID == "" {
			return &ConfigurationError{Field: "mattermost.channel_id", Reason: "required when mattermost channel is enabled"}
		}
	}
	return nil
}

func (c *Config) validateDedup() error {
	switch c.DedupBackend {
	case DedupBackendMemory:
	case DedupBackendRedis:
		if c.Redis.Host == "" {
			return &ConfigurationError{Field: "redis.host", Reason: "required when dedup backend is redis"}
		}
		if c.Redis.Port <= 0 {
			return &ConfigurationError{Field: "redis.port", Reason: "must be positive when dedup backend is redis"}
		}
	default:
		return &ConfigurationError{Field: "dedup_backend", Reason: fmt.Sprintf("unknown backend %q", c.DedupBackend)}
	}
	return nil
}
