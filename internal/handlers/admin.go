package handlers

import (
	"context"

	"gamepay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// CacheFlusher is the invalidation surface administrative writes trigger.
type CacheFlusher interface {
	FlushOperator(ctx context.Context, code string) error
	FlushVendor(ctx context.Context, code string) error
	FlushOperatorVendor(ctx context.Context, opCode, vendorCode string) error
}

// AdminHandler exposes the cache invalidation hooks used by administrative
// tooling after it writes operator or vendor configuration.
type AdminHandler struct {
	cache CacheFlusher
}

func NewAdminHandler(cache CacheFlusher) *AdminHandler {
	return &AdminHandler{cache: cache}
}

// FlushOperator invalidates one operator's cached configuration snapshot.
func (h *AdminHandler) FlushOperator(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.BadRequest(c, "operator code is required")
	}
	if err := h.cache.FlushOperator(c.Context(), code); err != nil {
		return utils.InternalError(c, "flush failed")
	}
	return utils.Success(c, fiber.Map{"flushed": code})
}

// FlushVendor invalidates one vendor's cached snapshot.
func (h *AdminHandler) FlushVendor(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.BadRequest(c, "vendor code is required")
	}
	if err := h.cache.FlushVendor(c.Context(), code); err != nil {
		return utils.InternalError(c, "flush failed")
	}
	return utils.Success(c, fiber.Map{"flushed": code})
}

// FlushOperatorVendor invalidates an (operator, vendor) pair after a
// per-vendor enablement or rate change.
func (h *AdminHandler) FlushOperatorVendor(c *fiber.Ctx) error {
	opCode := c.Params("code")
	vendorCode := c.Params("vendor")
	if opCode == "" || vendorCode == "" {
		return utils.BadRequest(c, "operator and vendor codes are required")
	}
	if err := h.cache.FlushOperatorVendor(c.Context(), opCode, vendorCode); err != nil {
		return utils.InternalError(c, "flush failed")
	}
	return utils.Success(c, fiber.Map{"flushed": opCode + "/" + vendorCode})
}
