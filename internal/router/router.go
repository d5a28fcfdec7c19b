package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/activity-stream-api/internal/config"
	"github.com/noah-isme/activity-stream-api/internal/handler"
	"github.com/noah-isme/activity-stream-api/internal/middleware"
	"github.com/noah-isme/activity-stream-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StreamHandler       *handler.StreamHandler
	ActivityHandler     *handler.ActivityHandler
	AllowedModelHandler *handler.AllowedModelHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.StreamHandler != nil {
		// The JWT guard goes on the /me route itself. A second group with the
		// same prefix would mount it as prefix-matched middleware and lock the
		// public feed out too.
		stream := api.Group("/activity-stream", middleware.RateLimit("stream", 120, time.Minute))
		deps.StreamHandler.Register(stream, jwtMiddleware)
	}

	admin := api.Group("/admin", jwtMiddleware)

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activities"))
	}

	if deps.AllowedModelHandler != nil {
		deps.AllowedModelHandler.Register(admin.Group("/allowed-models"))
	}
}
