package backoff

import (
	"math"
	"time"
)

// Backoff computes the wait duration before a given retry attempt.
// Attempt numbering starts at 0 for the first retry.
type Backoff interface {
	Duration(attempts int) time.Duration
}

type ConstantBackoff struct {
	Interval time.Duration
}

var _ Backoff = &ConstantBackoff{}

func (b *ConstantBackoff) Duration(_ int) time.Duration {
	return b.Interval
}

type ExponentialBackoff struct {
	Interval time.Duration
	Base     int
}

var _ Backoff = &ExponentialBackoff{}

func (b *ExponentialBackoff) Duration(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	return time.Duration(float64(b.Interval) * math.Pow(float64(b.Base), float64(attempts)))
}
