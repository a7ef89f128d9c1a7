package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/advisories"):
			ttl = "public, max-age=60" // Advisories update every few hours

		case strings.Contains(path, "/warnings"):
			ttl = "no-store" // Warnings must never be stale

		case strings.HasSuffix(path, "/centroid"):
			ttl = "public, max-age=3600" // Geometry is immutable per revision

		case strings.HasPrefix(path, "/v1/routes/"):
			ttl = "public, max-age=600" // 10 min for single route

		case path == "/v1/feeds/status":
			ttl = "public, max-age=60" // Feed status: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
