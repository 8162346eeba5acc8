// Package notify delivers performance alerts to configured channels.
package notify

import (
	"context"
	"time"
)

// AlertContext carries the fields notifiers need to render an alert message.
type AlertContext struct {
	Endpoint       string
	URL            string
	Params         map[string]string
	ElapsedSeconds float64
	AlertTime      time.Time
}

// Notifier delivers one alert to one channel. Implementations return an
// error on failure; retry and fault isolation are the dispatcher's job.
type Notifier interface {
	// Name identifies the channel in delivery outcome maps and logs.
	Name() string

	Deliver(ctx context.Context, alert AlertContext, report []byte) error
}

// Result is the per-channel delivery outcome.
type Result struct {
	Success  bool
	Attempts int
}
