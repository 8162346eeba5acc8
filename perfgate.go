// Package perfgate assembles the performance-alerting pipeline from a
// validated configuration: threshold evaluation, windowed deduplication and
// fault-isolated multi-channel notification.
package perfgate

import (
	"context"
	"fmt"
	"time"

	"github.com/perfgate/perfgate/alert"
	"github.com/perfgate/perfgate/backoff"
	"github.com/perfgate/perfgate/config"
	"github.com/perfgate/perfgate/dedup"
	"github.com/perfgate/perfgate/logging"
	"github.com/perfgate/perfgate/notify"
	"github.com/perfgate/perfgate/redis"
)

// New builds an alert monitor from the configuration. The caller owns the
// returned monitor and should Close it on shutdown.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*alert.Monitor, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifiers, err := notify.NewRegistry().BuildAll(cfg.Notifiers())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build notifiers: %w", err)
	}

	dispatcher := notify.NewDispatcher(
		notify.WithMaxAttempts(cfg.MaxRetries),
		notify.WithBackoff(&backoff.ExponentialBackoff{Interval: time.Second, Base: 2}),
		notify.WithAttemptBudget(cfg.DeliveryBudget()),
		notify.WithLogger(logger),
	)

	monitor := alert.NewMonitor(
		alert.MonitorConfig{
			ThresholdSeconds: cfg.ThresholdSeconds,
			AlertWindow:      cfg.AlertWindow(),
		},
		alert.WithStore(store),
		alert.WithDispatcher(dispatcher),
		alert.WithNotifiers(notifiers...),
		alert.WithOverheadTracker(alert.NewOverheadTracker(0, cfg.MaxPerformanceOverhead)),
		alert.WithLogger(logger),
	)

	logger.Ctx(ctx).Info("perfgate configured", cfg.LogConfigurationSummary()...)
	return monitor, nil
}

func newStore(ctx context.Context, cfg *config.Config) (dedup.Store, error) {
	switch cfg.DedupBackend {
	case config.DedupBackendRedis:
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect dedup store: %w", err)
		}
		return dedup.NewRedisStore(client), nil
	default:
		return dedup.NewMemoryStore(
			dedup.WithCleanupInterval(time.Hour, cfg.AlertWindow()),
		), nil
	}
}
