package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"redsocial/internal/observability"
)

// Metrics records request count and latency per matched route.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
