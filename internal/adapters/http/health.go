package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geophotos/internal/adapters/valkey"
)

// connectionChecker is implemented by event subscribers that hold a
// long-lived broker connection.
type connectionChecker interface {
	Connected() bool
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the storage directory and every configured backend.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Storage directory
		if deps.Storage != nil {
			if err := deps.Storage.Writable(); err != nil {
				checks["storage"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["storage"] = "ok"
			}
		} else {
			checks["storage"] = "not configured"
			allOK = false
		}

		// Database
		if deps.DB != nil {
			if err := deps.DB.Ping(ctx); err != nil {
				checks["database"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["database"] = "ok"
			}
		} else {
			checks["database"] = "not configured"
		}

		// NATS
		if deps.Feed != nil {
			if cc, ok := deps.Feed.(connectionChecker); ok && !cc.Connected() {
				checks["nats"] = "disconnected"
				allOK = false
			} else {
				checks["nats"] = "ok"
			}
		} else {
			checks["nats"] = "not configured"
		}

		// Valkey cache
		if deps.Cache != nil {
			if err := deps.Cache.Ping(ctx); err != nil && !valkey.IsMiss(err) {
				checks["cache"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["cache"] = "ok"
			}
		} else {
			checks["cache"] = "not configured"
		}

		// Object replica
		if deps.Replica != nil {
			if err := deps.Replica.Ping(ctx); err != nil {
				checks["replica"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["replica"] = "ok"
			}
		} else {
			checks["replica"] = "not configured"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
