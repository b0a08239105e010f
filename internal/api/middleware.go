package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"periodizer/internal/logger"
)

// RequestLogger logs one line per request once the handler has finished.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		}
		if c.Writer.Status() >= 500 {
			log.Warn("request", kv...)
			return
		}
		log.Debug("request", kv...)
	}
}
