package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgate/perfgate/alert"
	"github.com/perfgate/perfgate/internal/testutil"
	"github.com/perfgate/perfgate/middleware"
	"github.com/perfgate/perfgate/notify"
)

type capturingDispatcher struct {
	mu     sync.Mutex
	alerts []notify.AlertContext
}

func (d *capturingDispatcher) Dispatch(_ context.Context, alertCtx notify.AlertContext, _ []byte, _ []notify.Notifier) map[string]notify.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, alertCtx)
	return nil
}

func (d *capturingDispatcher) dispatched() []notify.AlertContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.AlertContext(nil), d.alerts...)
}

// fixedProfiler reports a constant elapsed time instead of measuring.
type fixedProfiler struct {
	elapsed time.Duration
}

func (p fixedProfiler) Profile(_ string, fn func()) middleware.Profile {
	fn()
	return middleware.Profile{Elapsed: p.elapsed, Report: []byte("<html/>")}
}

func newTestMiddleware(t *testing.T, elapsed time.Duration) (*middleware.Middleware, *capturingDispatcher) {
	t.Helper()
	dispatcher := &capturingDispatcher{}
	monitor := alert.NewMonitor(
		alert.MonitorConfig{ThresholdSeconds: 1.0, AlertWindow: time.Hour},
		alert.WithDispatcher(dispatcher),
		alert.WithLogger(testutil.CreateTestLogger(t)),
	)
	t.Cleanup(func() { monitor.Close() })

	return middleware.New(monitor, middleware.WithProfiler(fixedProfiler{elapsed: elapsed})), dispatcher
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("slow request dispatches an alert with request metadata", func(t *testing.T) {
		t.Parallel()
		mw, dispatcher := newTestMiddleware(t, 1500*time.Millisecond)

		handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?year=2026", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		alerts := dispatcher.dispatched()
		require.Len(t, alerts, 1)
		assert.Equal(t, "/reports", alerts[0].Endpoint)
		assert.Equal(t, "/reports?year=2026", alerts[0].URL)
		assert.Equal(t, "2026", alerts[0].Params["year"])
		assert.InDelta(t, 1.5, alerts[0].ElapsedSeconds, 1e-9)
	})

	t.Run("fast request never dispatches", func(t *testing.T) {
		t.Parallel()
		mw, dispatcher := newTestMiddleware(t, 10*time.Millisecond)

		handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

		assert.Empty(t, dispatcher.dispatched())
	})

	t.Run("response passes through untouched", func(t *testing.T) {
		t.Parallel()
		mw, _ := newTestMiddleware(t, 2*time.Second)

		handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short and stout"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "short and stout", rec.Body.String())
	})
}

func TestWrapFunc(t *testing.T) {
	t.Parallel()
	mw, dispatcher := newTestMiddleware(t, 3*time.Second)

	ran := false
	wrapped := mw.WrapFunc("nightly-report", func() { ran = true })
	wrapped()

	assert.True(t, ran)
	alerts := dispatcher.dispatched()
	require.Len(t, alerts, 1)
	assert.Equal(t, "nightly-report", alerts[0].Endpoint)
}

func TestGin(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	t.Run("uses route pattern as endpoint identity", func(t *testing.T) {
		t.Parallel()
		mw, dispatcher := newTestMiddleware(t, 2*time.Second)

		router := gin.New()
		router.Use(mw.Gin())
		router.GET("/users/:id", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		// Identical requests share one alert key: the second is deduped.
		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/1", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		alerts := dispatcher.dispatched()
		require.Len(t, alerts, 1)
		assert.Equal(t, "/users/:id", alerts[0].Endpoint)
	})
}

func TestTimerProfiler(t *testing.T) {
	t.Parallel()

	profile := middleware.TimerProfiler{}.Profile("/slow", func() {
		time.Sleep(20 * time.Millisecond)
	})

	assert.GreaterOrEqual(t, profile.Elapsed, 20*time.Millisecond)
	assert.Contains(t, string(profile.Report), "/slow")
}
