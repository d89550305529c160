package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ErrorLocalKey is the Fiber locals key where handlers leave an internal error for the
// access log.
const ErrorLocalKey = "error"

// Logger writes one access log entry per request with request_id, method, path, status
// and latency (milliseconds). 5xx responses log at error level, 4xx at warn.
func Logger(logger log.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// A returned error is rendered by the app's ErrorHandler after this middleware.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		entry := logger.WithFields(log.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})
		if uid, ok := c.Locals(UserIDLocalKey).(string); ok {
			entry = entry.WithField("user_id", uid)
		}
		if cause, ok := c.Locals(ErrorLocalKey).(error); ok {
			entry = entry.WithError(cause)
		} else if err != nil {
			entry = entry.WithError(err)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
		return err
	}
}
