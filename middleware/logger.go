package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured entry per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		entry := logger.Log.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.IP(),
		})
		if uid := UserID(c); uid != 0 {
			entry = entry.WithField("user_id", uid)
		}

		switch {
		case err != nil:
			entry.WithError(err).Error("request failed")
		case status >= fiber.StatusInternalServerError:
			entry.Error("request completed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
		return err
	}
}
