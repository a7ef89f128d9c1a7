package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/nereamendi/stormwatch/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// /v1/check predates the stateless scan endpoint.
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/check",
			SunsetDate:  time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/scan",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/routes", timeout.NewWithContext(CreateRouteHandler(deps), 15*time.Second))
	v1.Get("/routes", timeout.NewWithContext(ListRoutesHandler(deps), 15*time.Second))
	v1.Get("/routes/:id", timeout.NewWithContext(GetRouteHandler(deps), 15*time.Second))
	v1.Delete("/routes/:id", timeout.NewWithContext(DeleteRouteHandler(deps), 15*time.Second))
	v1.Get("/routes/:id/centroid", timeout.NewWithContext(RouteCentroidHandler(deps), 15*time.Second))
	v1.Get("/routes/:id/warnings", timeout.NewWithContext(RouteWarningsHandler(deps), 15*time.Second))
	v1.Post("/routes/:id/scan", timeout.NewWithContext(ScanRouteHandler(deps), 15*time.Second))

	v1.Post("/advisories/ingest", timeout.NewWithContext(IngestAdvisoriesHandler(deps), 15*time.Second))
	v1.Get("/advisories", timeout.NewWithContext(ListAdvisoriesHandler(deps), 15*time.Second))
	v1.Get("/advisories/active", timeout.NewWithContext(ActiveAdvisoriesHandler(deps), 15*time.Second))
	v1.Get("/advisories/:id", timeout.NewWithContext(GetAdvisoryHandler(deps), 15*time.Second))

	v1.Post("/scan", timeout.NewWithContext(ScanPointsHandler(deps), 15*time.Second))
	// Deprecated alias, kept for clients of the first release.
	v1.Post("/check", timeout.NewWithContext(ScanPointsHandler(deps), 15*time.Second))

	v1.Get("/warnings/:id", timeout.NewWithContext(GetWarningHandler(deps), 15*time.Second))
	v1.Post("/warnings/:id/ack", timeout.NewWithContext(AckWarningHandler(deps), 15*time.Second))

	v1.Get("/feeds/status", timeout.NewWithContext(FeedStatusHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
