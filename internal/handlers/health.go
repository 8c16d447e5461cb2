package handlers

import (
	"context"

	"gamepay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger reports whether the configuration cache backend is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports platform liveness: the operator database and the
// cache backend. Tenant databases are opened lazily and are not probed here.
type HealthHandler struct {
	platformDB *gorm.DB
	cache      Pinger
}

func NewHealthHandler(platformDB *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{platformDB: platformDB, cache: cache}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok"}
	healthy := true

	if sqlDB, err := h.platformDB.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		status["database"] = "unreachable"
		healthy = false
	}
	if err := h.cache.HealthCheck(c.Context()); err != nil {
		status["cache"] = "unreachable"
		healthy = false
	}

	if !healthy {
		status["status"] = "degraded"
		return utils.Respond(c, fiber.StatusServiceUnavailable, status)
	}
	return utils.Success(c, status)
}
