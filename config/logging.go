package config

import (
	"go.uber.org/zap"
)

// LogConfigurationSummary returns zap fields describing the effective
// configuration, masking sensitive values.
func (c *Config) LogConfigurationSummary() []zap.Field {
	return []zap.Field{
		zap.String("config_file_path", c.ConfigFilePath()),
		zap.String("log_level", c.LogLevel),

		zap.Float64("threshold_seconds", c.ThresholdSeconds),
		zap.Int("alert_window_days", c.AlertWindowDays),
		zap.Float64("max_performance_overhead", c.MaxPerformanceOverhead),

		zap.Int("max_retries", c.MaxRetries),
		zap.Int("delivery_budget_seconds", c.DeliveryBudgetSeconds),

		zap.Bool("local_file_enabled", c.EnableLocalFile),
		zap.String("local_file_output_dir", c.LocalFile.OutputDir),
		zap.Bool("mattermost_enabled", c.EnableMattermost),
		zap.String("mattermost_server_url", c.Mattermost.ServerURL),
		zap.Bool("mattermost_token_configured", c.Mattermost.Token != ""),
		zap.String("mattermost_channel_id", c.Mattermost.ChannelID),

		zap.String("dedup_backend", c.DedupBackend),
		zap.String("redis_host", c.Redis.Host),
		zap.Int("redis_port", c.Redis.Port),
		zap.Bool("redis_password_configured", c.Redis.Password != ""),
		zap.Bool("redis_tls_enabled", c.Redis.TLSEnabled),
	}
}
