package alert

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perfgate/perfgate/dedup"
	"github.com/perfgate/perfgate/logging"
	"github.com/perfgate/perfgate/metrics"
	"github.com/perfgate/perfgate/notify"
)

// MonitorConfig holds the alert decision settings.
type MonitorConfig struct {
	// ThresholdSeconds is the execution time above which an alert is
	// considered. Values <= 0 alert on every call.
	ThresholdSeconds float64
	// AlertWindow is the rolling window during which a second alert for the
	// same key is suppressed.
	AlertWindow time.Duration
}

// Monitor is the sole entry point adapters call once a measurement finishes.
// It gates on the threshold, deduplicates by alert key, dispatches to the
// configured channels and records outcomes. Nothing it does may surface a
// failure to the instrumented call path.
type Monitor struct {
	config     MonitorConfig
	store      dedup.Store
	dispatcher Dispatcher
	notifiers  []notify.Notifier
	overhead   *OverheadTracker
	logger     *logging.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(m *Monitor)

func WithStore(store dedup.Store) MonitorOption {
	return func(m *Monitor) {
		m.store = store
	}
}

func WithDispatcher(dispatcher Dispatcher) MonitorOption {
	return func(m *Monitor) {
		m.dispatcher = dispatcher
	}
}

func WithNotifiers(notifiers ...notify.Notifier) MonitorOption {
	return func(m *Monitor) {
		m.notifiers = notifiers
	}
}

func WithOverheadTracker(tracker *OverheadTracker) MonitorOption {
	return func(m *Monitor) {
		m.overhead = tracker
	}
}

func WithLogger(logger *logging.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor creates a monitor with default in-memory deduplication, a
// default dispatcher and no notifiers unless configured otherwise.
func NewMonitor(config MonitorConfig, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		config:   config,
		overhead: NewOverheadTracker(0, 0),
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = dedup.NewMemoryStore()
	}
	if m.dispatcher == nil {
		m.dispatcher = notify.NewDispatcher(notify.WithLogger(m.logger))
	}
	return m
}

// Close releases the monitor's deduplication store.
func (m *Monitor) Close() error {
	return m.store.Close()
}

// Evaluate runs one alert decision for a finished measurement. It returns
// the terminal state and, when an alert was dispatched, the record of its
// delivery outcomes. It never returns an error and never panics: every
// internal failure is logged and swallowed here.
func (m *Monitor) Evaluate(ctx context.Context, measured Metrics, report []byte) (record *AlertRecord, state EvaluationState) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Ctx(ctx).Error("alert evaluation failure suppressed",
				zap.String("endpoint", measured.Endpoint),
				zap.Any("panic", r))
			record, state = nil, StateFailed
			metrics.ObserveEvaluation(string(state))
		}
	}()

	record, state = m.evaluate(ctx, measured, report)
	metrics.ObserveEvaluation(string(state))
	return record, state
}

func (m *Monitor) evaluate(ctx context.Context, measured Metrics, report []byte) (*AlertRecord, EvaluationState) {
	m.trackOverhead(ctx, measured)

	// A leaked profiling failure shows up as unusable metrics; treat it as
	// "nothing to evaluate".
	if math.IsNaN(measured.ElapsedSeconds) || measured.ElapsedSeconds < 0 {
		m.logger.Ctx(ctx).Warn("ignoring evaluation with invalid execution time",
			zap.String("endpoint", measured.Endpoint),
			zap.Float64("elapsed_seconds", measured.ElapsedSeconds))
		return nil, StateSuppressed
	}

	if !ShouldConsider(measured.ElapsedSeconds, m.config.ThresholdSeconds) {
		return nil, StateSuppressed
	}

	key := Key(measured.Endpoint, measured.URL, measured.Params)

	proceed, err := m.store.CheckAndMark(ctx, key, m.config.AlertWindow)
	if err != nil {
		m.logger.Ctx(ctx).Error("dedup store failure suppressed",
			zap.String("endpoint", measured.Endpoint),
			zap.String("alert_key", key),
			zap.Error(err))
		return nil, StateFailed
	}
	if !proceed {
		m.logger.Ctx(ctx).Debug("alert suppressed by dedup window",
			zap.String("endpoint", measured.Endpoint),
			zap.String("alert_key", key))
		return nil, StateDeduped
	}

	alertTime := measured.Timestamp
	if alertTime.IsZero() {
		alertTime = time.Now()
	}
	alertCtx := notify.AlertContext{
		Endpoint:       measured.Endpoint,
		URL:            measured.URL,
		Params:         stringifyParams(measured.Params),
		ElapsedSeconds: measured.ElapsedSeconds,
		AlertTime:      alertTime,
	}
	deliveries := m.dispatcher.Dispatch(ctx, alertCtx, report, m.notifiers)

	record := &AlertRecord{
		ID:             uuid.New().String(),
		Endpoint:       measured.Endpoint,
		URL:            measured.URL,
		Params:         measured.Params,
		AlertTime:      alertTime,
		ElapsedSeconds: measured.ElapsedSeconds,
		Deliveries:     deliveries,
	}
	m.recordOutcome(ctx, key, record)
	return record, StateRecorded
}

func (m *Monitor) recordOutcome(ctx context.Context, key string, record *AlertRecord) {
	fields := []zap.Field{
		zap.String("alert_id", record.ID),
		zap.String("alert_key", key),
		zap.String("endpoint", record.Endpoint),
		zap.String("url", record.URL),
		zap.Float64("elapsed_seconds", record.ElapsedSeconds),
		zap.Time("alert_time", record.AlertTime),
	}
	for channel, result := range record.Deliveries {
		metrics.ObserveNotification(channel, result.Success)
		fields = append(fields,
			zap.Bool("delivery_"+channel+"_success", result.Success),
			zap.Int("delivery_"+channel+"_attempts", result.Attempts))
	}
	m.logger.Ctx(ctx).Info("performance alert dispatched", fields...)
}

func (m *Monitor) trackOverhead(ctx context.Context, measured Metrics) {
	if m.overhead == nil || measured.OverheadSeconds <= 0 || measured.ElapsedSeconds <= 0 {
		return
	}
	m.overhead.Record(measured.OverheadSeconds / measured.ElapsedSeconds)
	metrics.SetOverheadRatio(m.overhead.Average())
	if m.overhead.ExceedsBudget() {
		m.logger.Ctx(ctx).Warn("monitoring overhead above budget",
			zap.Float64("average_overhead_ratio", m.overhead.Average()))
	}
}

func stringifyParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = stringifyValue(v)
	}
	return out
}
