package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perfgate/perfgate/alert"
)

// Gin returns a gin middleware. The endpoint identity is the matched route
// pattern, so /users/123 and /users/456 share one alert key.
func (m *Middleware) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		profile := m.profiler.Profile(endpoint, func() {
			c.Next()
		})

		m.monitor.Evaluate(c.Request.Context(), alert.Metrics{
			Endpoint:        endpoint,
			URL:             c.Request.URL.String(),
			Params:          queryParams(c.Request.URL.Query()),
			ElapsedSeconds:  profile.Elapsed.Seconds(),
			Timestamp:       time.Now(),
			Method:          c.Request.Method,
			StatusCode:      c.Writer.Status(),
			OverheadSeconds: profile.Overhead.Seconds(),
		}, profile.Report)
	}
}
