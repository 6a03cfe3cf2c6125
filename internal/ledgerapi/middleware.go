package ledgerapi

import (
	"time"

	"github.com/gin-gonic/gin"

	applog "clubdash/internal/log"
)

// RequestLogger replaces gin's logger with one that writes through slog.
func RequestLogger(logger *applog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			args = append(args, applog.FieldError, c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.ErrorContext(ctx, "Request failed", args...)
		case status >= 400:
			logger.WarnContext(ctx, "Request rejected", args...)
		default:
			logger.InfoContext(ctx, "Request completed", args...)
		}
	}
}
