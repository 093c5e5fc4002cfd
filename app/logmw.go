// app/logmw.go
package app

import (
	"strconv"
	"time"

	"lsys/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request and records its latency.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		ev := log.Info()
		if status >= 500 {
			ev = log.Error()
		}
		if acc, ok := CurrentAccount(c); ok {
			ev = ev.Int64("uid", acc.UID)
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
