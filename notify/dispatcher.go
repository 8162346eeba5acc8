package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/perfgate/perfgate/backoff"
	"github.com/perfgate/perfgate/logging"
)

const (
	defaultMaxAttempts   = 3
	defaultAttemptBudget = 30 * time.Second
)

// Dispatcher fans an alert out to a set of notifiers. Channels are attempted
// concurrently and independently: a failure (or panic) in one channel never
// prevents delivery to the others, and Dispatch never returns an error.
type Dispatcher struct {
	maxAttempts   int
	backoff       backoff.Backoff
	attemptBudget time.Duration
	logger        *logging.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(d *Dispatcher)

// WithMaxAttempts sets how many delivery attempts each channel gets in total.
// Values < 1 are treated as 1.
func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.maxAttempts = n
	}
}

// WithBackoff sets the backoff policy between attempts.
func WithBackoff(bo backoff.Backoff) DispatcherOption {
	return func(d *Dispatcher) {
		d.backoff = bo
	}
}

// WithAttemptBudget caps the total wall-clock time spent on one channel,
// retries and backoff sleeps included.
func WithAttemptBudget(budget time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.attemptBudget = budget
	}
}

func WithLogger(logger *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		maxAttempts:   defaultMaxAttempts,
		backoff:       &backoff.ExponentialBackoff{Interval: time.Second, Base: 2},
		attemptBudget: defaultAttemptBudget,
		logger:        logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers the alert to every notifier and returns a per-channel
// outcome map keyed by notifier name.
func (d *Dispatcher) Dispatch(ctx context.Context, alert AlertContext, report []byte, notifiers []Notifier) map[string]Result {
	results := make(map[string]Result, len(notifiers))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, notifier := range notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			result := d.deliverWithRetry(ctx, n, alert, report)
			mu.Lock()
			results[n.Name()] = result
			mu.Unlock()
		}(notifier)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, n Notifier, alert AlertContext, report []byte) Result {
	ctx, cancel := context.WithTimeout(ctx, d.attemptBudget)
	defer cancel()

	result := Result{}
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		result.Attempts = attempt

		err := d.deliverOnce(ctx, n, alert, report)
		if err == nil {
			result.Success = true
			return result
		}

		d.logger.Ctx(ctx).Warn("alert delivery attempt failed",
			zap.String("channel", n.Name()),
			zap.String("endpoint", alert.Endpoint),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.maxAttempts),
			zap.Error(err))

		if attempt == d.maxAttempts {
			break
		}
		select {
		case <-time.After(d.backoff.Duration(attempt - 1)):
		case <-ctx.Done():
			d.logger.Ctx(ctx).Warn("alert delivery budget exhausted",
				zap.String("channel", n.Name()),
				zap.String("endpoint", alert.Endpoint),
				zap.Int("attempt", attempt))
			return result
		}
	}

	d.logger.Ctx(ctx).Error("alert delivery failed after all attempts",
		zap.String("channel", n.Name()),
		zap.String("endpoint", alert.Endpoint),
		zap.Int("attempts", result.Attempts))
	return result
}

// deliverOnce runs one delivery attempt, converting a notifier panic into an
// error so a misbehaving channel cannot take down the dispatch.
func (d *Dispatcher) deliverOnce(ctx context.Context, n Notifier, alert AlertContext, report []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier %s panicked: %v", n.Name(), r)
		}
	}()
	return n.Deliver(ctx, alert, report)
}
