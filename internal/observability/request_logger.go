package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestIDLocal is the fiber locals key populated by the requestid middleware.
const RequestIDLocal = "requestid"

// RequestLogger logs one line per HTTP call and feeds the request counters.
// Register it ahead of the error handling middleware so the rendered status is logged.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	log := logger.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		route := c.Route().Path
		if route == "" || route == "/" {
			route = c.Path()
		}
		metrics.RecordRequest(route, c.Method(), status, duration)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
		}
		if id, ok := c.Locals(RequestIDLocal).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request completed", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
		return err
	}
}
