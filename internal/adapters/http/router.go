package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geophotos/internal/pkg/metrics"
	"github.com/samirrijal/geophotos/internal/pkg/telemetry"
)

// SetupRoutes registers the page, upload, listing, static, GraphQL and
// WebSocket routes plus the operational endpoints.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Tracing spans (no-op provider unless telemetry is enabled)
	app.Use(telemetry.Middleware())

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

	if deps.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Page, upload and listing
	app.Get("/", IndexHandler(deps))
	app.Post("/upload", UploadPhotoHandler(deps))
	app.Get("/photos", ListPhotosHandler(deps))
	app.Get("/photos/nearby", timeout.NewWithContext(NearbyPhotosHandler(deps), 15*time.Second))
	app.Get("/uploads/*", ServeUploadHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.DocsDir)

	// WebSocket live feed of uploads
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.Feed != nil && websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	if deps.Feed != nil {
		app.Get("/ws", websocket.New(WebSocketHandler(deps.Feed)))
	}
}
