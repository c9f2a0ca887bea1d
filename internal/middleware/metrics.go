package middleware

import (
	"fmt"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware counts requests per route template and status class.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if path == "/metrics" {
			return
		}
		statusClass := fmt.Sprintf("%dxx", c.Writer.Status()/100)
		m.RecordHTTPRequest(path, c.Request.Method, statusClass, time.Since(start).Seconds())
	}
}
