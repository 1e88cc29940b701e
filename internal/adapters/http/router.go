package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

const handlerTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
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
			return newError(c, fiber.StatusTooManyRequests, "rate_limited",
				"too many requests, please try again later")
		},
		// an emergency alert is never throttled
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/v1/sos/trigger"
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

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/routes/calculate", withTimeout(CalculateRouteHandler(deps)))
	v1.Post("/routes/score", withTimeout(ScoreRouteHandler(deps)))
	v1.Get("/crime/hotspots", withTimeout(HotspotsHandler(deps)))
	v1.Post("/crime/reports", withTimeout(ReportCrimeHandler(deps)))

	// SOS and contacts act on the caller named by X-User-ID
	v1.Post("/sos/trigger", withTimeout(TriggerSOSHandler(deps)))
	v1.Get("/sos/history", withTimeout(SOSHistoryHandler(deps)))
	v1.Get("/sos/:id", withTimeout(GetSOSHandler(deps)))
	v1.Post("/sos/:id/resolve", withTimeout(ResolveSOSHandler(deps)))
	v1.Get("/contacts", withTimeout(ListContactsHandler(deps)))
	v1.Post("/contacts", withTimeout(AddContactHandler(deps)))
	v1.Delete("/contacts/:id", withTimeout(DeleteContactHandler(deps)))

	// GraphQL
	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

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

// withTimeout cancels the handler context after handlerTimeout.
func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, handlerTimeout)
}
