// Package middleware instruments request handlers and arbitrary functions,
// measuring them through a profiling collaborator and handing the result to
// the alert monitor.
package middleware

import (
	"fmt"
	"html"
	"time"
)

// Profile is one finished measurement: elapsed time plus an opaque report
// artifact. Overhead is the cost of the measurement itself, zero if unknown.
type Profile struct {
	Elapsed  time.Duration
	Report   []byte
	Overhead time.Duration
}

// Profiler measures the execution of fn. Implementations wrap real profiling
// engines; the default only takes wall-clock time.
type Profiler interface {
	Profile(endpoint string, fn func()) Profile
}

// TimerProfiler is the default profiler: wall-clock timing and a minimal
// HTML report.
type TimerProfiler struct{}

var _ Profiler = TimerProfiler{}

func (TimerProfiler) Profile(endpoint string, fn func()) Profile {
	start := time.Now()
	fn()
	elapsed := time.Since(start)

	reportStart := time.Now()
	report := renderTimingReport(endpoint, elapsed)
	return Profile{
		Elapsed:  elapsed,
		Report:   report,
		Overhead: time.Since(reportStart),
	}
}

func renderTimingReport(endpoint string, elapsed time.Duration) []byte {
	return []byte(fmt.Sprintf(
		`<html><head><title>Performance report</title></head><body>
<h1>Performance report</h1>
<p><b>Endpoint:</b> %s</p>
<p><b>Execution time:</b> %.3fs</p>
<p>No profiler configured; timing only.</p>
</body></html>`,
		html.EscapeString(endpoint), elapsed.Seconds()))
}
