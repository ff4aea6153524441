package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/aldapa/trackside/internal/pkg/metrics"
)

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

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/routes/direct", timeout.NewWithContext(DirectRouteHandler(deps), 15*time.Second))
	v1.Post("/routes/randomized", timeout.NewWithContext(RandomizedRouteHandler(deps), 15*time.Second))
	v1.Post("/routes/distance", timeout.NewWithContext(RouteDistanceHandler(deps), 15*time.Second))
	v1.Post("/routes/scan", timeout.NewWithContext(ScanRouteHandler(deps), 15*time.Second))
	v1.Get("/hazards/nearby", timeout.NewWithContext(NearbyHazardsHandler(deps), 15*time.Second))
	v1.Get("/hazards/:id", timeout.NewWithContext(GetHazardHandler(deps), 15*time.Second))
	v1.Get("/zones", timeout.NewWithContext(ListZonesHandler(deps), 15*time.Second))
	v1.Post("/zones/detect", timeout.NewWithContext(DetectZonesHandler(deps), 15*time.Second))
	v1.Post("/zones/nearest", timeout.NewWithContext(NearestZoneHandler(deps), 15*time.Second))
	v1.Post("/loops", timeout.NewWithContext(CreateLoopHandler(deps), 15*time.Second))
	v1.Post("/loops/validate", timeout.NewWithContext(ValidateLoopHandler(deps), 15*time.Second))
	v1.Post("/loops/sectors", timeout.NewWithContext(PartitionSectorsHandler(deps), 15*time.Second))
	v1.Post("/loops/length-check", timeout.NewWithContext(LoopLengthCheckHandler(deps), 15*time.Second))
	v1.Get("/loops/:id", timeout.NewWithContext(GetLoopHandler(deps), 15*time.Second))
	v1.Get("/loops", timeout.NewWithContext(ListLoopsHandler(deps), 15*time.Second))

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
