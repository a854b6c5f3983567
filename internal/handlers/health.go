package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Stats reports runtime figures of a dependency, such as connection pool usage.
type Stats func() interface{}

type HealthHandler struct {
	checks  map[string]Check
	stats   map[string]Stats
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Check, stats map[string]Stats) *HealthHandler {
	return &HealthHandler{checks: checks, stats: stats, timeout: 2 * time.Second}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := "ok"
	services := fiber.Map{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = "unavailable: " + err.Error()
			status = "degraded"
			continue
		}
		services[name] = "connected"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	body := fiber.Map{
		"status":   status,
		"version":  "1.0.0",
		"services": services,
	}
	if len(h.stats) > 0 {
		stats := fiber.Map{}
		for name, fn := range h.stats {
			stats[name] = fn()
		}
		body["stats"] = stats
	}
	return c.Status(code).JSON(body)
}
