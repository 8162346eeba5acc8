package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/perfgate/perfgate/alert"
)

// Middleware wires a profiler and an alert monitor into handler adapters.
// Instrumentation is transparent: neither measurement nor alerting can
// change a response or surface an error to the wrapped handler.
type Middleware struct {
	monitor  *alert.Monitor
	profiler Profiler
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(m *Middleware)

// WithProfiler replaces the default wall-clock profiler.
func WithProfiler(profiler Profiler) MiddlewareOption {
	return func(m *Middleware) {
		m.profiler = profiler
	}
}

func New(monitor *alert.Monitor, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		monitor:  monitor,
		profiler: TimerProfiler{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap instruments an http.Handler. The endpoint identity is the request
// path; query parameters become the alert parameters.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		profile := m.profiler.Profile(r.URL.Path, func() {
			next.ServeHTTP(recorder, r)
		})

		m.monitor.Evaluate(r.Context(), alert.Metrics{
			Endpoint:        r.URL.Path,
			URL:             r.URL.String(),
			Params:          queryParams(r.URL.Query()),
			ElapsedSeconds:  profile.Elapsed.Seconds(),
			Timestamp:       time.Now(),
			Method:          r.Method,
			StatusCode:      recorder.status,
			OverheadSeconds: profile.Overhead.Seconds(),
		}, profile.Report)
	})
}

// WrapFunc instruments an arbitrary function under the given endpoint name.
func (m *Middleware) WrapFunc(endpoint string, fn func()) func() {
	return func() {
		profile := m.profiler.Profile(endpoint, fn)
		m.monitor.Evaluate(context.Background(), alert.Metrics{
			Endpoint:        endpoint,
			ElapsedSeconds:  profile.Elapsed.Seconds(),
			Timestamp:       time.Now(),
			OverheadSeconds: profile.Overhead.Seconds(),
		}, profile.Report)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func queryParams(values url.Values) map[string]any {
	if len(values) == 0 {
		return nil
	}
	params := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			params[key] = vals[0]
			continue
		}
		params[key] = vals
	}
	return params
}
