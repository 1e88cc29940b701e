package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers based on endpoint when the
// handler did not set one. Anything tied to a user or to a fresh safety
// assessment is never cached by intermediaries.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case strings.HasPrefix(path, "/v1/sos") || strings.HasPrefix(path, "/v1/contacts"):
			ttl = "private, no-store" // personal and time critical

		case c.Method() != fiber.MethodGet:
			return err

		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/crime/hotspots":
			ttl = "public, max-age=300" // matches the hotspot cache TTL

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "private, max-age=0"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
