package alert

import (
	"sync"
)

const (
	defaultOverheadSampleSize = 100
	defaultMaxOverhead        = 0.05
)

// OverheadTracker keeps a rolling sample of monitoring overhead ratios
// (overhead time divided by underlying execution time). Pure bookkeeping;
// it never influences alert decisions.
type OverheadTracker struct {
	mu          sync.Mutex
	samples     []float64
	next        int
	count       int
	maxOverhead float64
}

// NewOverheadTracker creates a tracker keeping the last sampleSize ratios.
// maxOverhead is the budget above which ExceedsBudget reports true;
// non-positive arguments fall back to the defaults (100 samples, 5%).
func NewOverheadTracker(sampleSize int, maxOverhead float64) *OverheadTracker {
	if sampleSize <= 0 {
		sampleSize = defaultOverheadSampleSize
	}
	if maxOverhead <= 0 {
		maxOverhead = defaultMaxOverhead
	}
	return &OverheadTracker{
		samples:     make([]float64, sampleSize),
		maxOverhead: maxOverhead,
	}
}

// Record adds one overhead ratio to the rolling sample.
func (t *OverheadTracker) Record(ratio float64) {
	if ratio < 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[t.next] = ratio
	t.next = (t.next + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
}

// Average returns the mean of the recorded ratios, or 0 with no samples.
func (t *OverheadTracker) Average() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < t.count; i++ {
		sum += t.samples[i]
	}
	return sum / float64(t.count)
}

// ExceedsBudget reports whether the rolling average is above the configured
// maximum overhead.
func (t *OverheadTracker) ExceedsBudget() bool {
	return t.Average() > t.maxOverhead
}
