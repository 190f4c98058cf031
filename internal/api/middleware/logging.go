package middleware

import (
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		// Log format: [method] path?query - status (latency)
		if raw != "" {
			path = path + "?" + raw
		}

		switch {
		case statusCode >= 500:
			logger.Errorf("[%s] %s - %d (%v)", c.Request.Method, path, statusCode, latency)
		case statusCode >= 400:
			logger.Warnf("[%s] %s - %d (%v)", c.Request.Method, path, statusCode, latency)
		default:
			logger.Infof("[%s] %s - %d (%v)", c.Request.Method, path, statusCode, latency)
		}
	}
}
