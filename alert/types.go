// Package alert decides whether a measured invocation warrants a performance
// alert and orchestrates deduplication and notification dispatch.
package alert

import (
	"context"
	"time"

	"github.com/perfgate/perfgate/notify"
)

// Metrics is an immutable snapshot of one measured invocation, produced by
// an adapter when measurement completes.
type Metrics struct {
	Endpoint       string
	URL            string
	Params         map[string]any
	ElapsedSeconds float64
	Timestamp      time.Time
	Method         string
	StatusCode     int

	// OverheadSeconds is the time the measurement itself added, when the
	// profiling collaborator reports it. Zero means unknown.
	OverheadSeconds float64
}

// EvaluationState is the terminal state of one evaluation.
type EvaluationState string

const (
	// StateSuppressed means the execution time did not cross the threshold.
	StateSuppressed EvaluationState = "SUPPRESSED"
	// StateDeduped means an alert for the same key fired within the window.
	StateDeduped EvaluationState = "DEDUPED"
	// StateRecorded means the alert was dispatched and its outcome recorded.
	StateRecorded EvaluationState = "RECORDED"
	// StateFailed means an internal failure was swallowed at the
	// orchestration boundary. The instrumented caller never sees it.
	StateFailed EvaluationState = "FAILED"
)

// AlertRecord captures one dispatched alert and its per-channel delivery
// outcomes. It exists for logging and observability hooks only; the core
// never reads it back.
type AlertRecord struct {
	ID             string
	Endpoint       string
	URL            string
	Params         map[string]any
	AlertTime      time.Time
	ElapsedSeconds float64
	Deliveries     map[string]notify.Result
}

// Dispatcher fans an alert out to the configured notifier channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert notify.AlertContext, report []byte, notifiers []notify.Notifier) map[string]notify.Result
}
