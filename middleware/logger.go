package middleware

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/forbearing/jvspatial/logger"
	"github.com/forbearing/jvspatial/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger records each request's access log and HTTP metrics.
func Logger(filename ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		labelPath := sanitizeLabelValue(path)
		query := c.Request.URL.RawQuery
		c.Set("route", path)
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, labelPath, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, labelPath, status).Observe(time.Since(start).Seconds())

		//nolint:prealloc
		fields := []zapcore.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("username", c.GetString("username")),
			zap.String("user_id", c.GetString("user_id")),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				logger.Gin.Error(e, fields...)
			}
		} else {
			logger.Gin.Info(path, fields...)
		}
	}
}

// sanitizeLabelValue ensures we never export non UTF-8 label values to Prometheus.
func sanitizeLabelValue(value string) string {
	if value == "" {
		return "<empty>"
	}

	if utf8.ValidString(value) {
		return value
	}

	return "<invalid>"
}
