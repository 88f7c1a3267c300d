package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/logger"
	"messaging-service/internal/observability"
)

// RequestLogger writes one line per request with the caller, path and outcome.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		user := "anonymous"
		if id, ok := c.Get("userID"); ok {
			user = fmt.Sprint(id)
		}
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"user", user,
			"ip", observability.IPFromRequest(c.Request),
			"request_id", observability.RequestIDFromContext(c.Request.Context()),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", kv...)
		case status >= 400:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
