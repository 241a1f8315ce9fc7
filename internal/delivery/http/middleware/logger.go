package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger writes one structured line per request. Tile traffic is chatty,
// so successes log at debug and only failures surface at warn.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		}
		if id, ok := c.Locals(RequestIDHeader).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}

		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			logger.Warn("Request failed", fields...)
		} else {
			logger.Debug("Request", fields...)
		}
		return err
	}
}
