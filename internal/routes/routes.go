// Package routes wires the HTTP surface: the operator-facing transaction API
// behind API-credential auth and the administrative hooks behind JWT auth.
package routes

import (
	"gamepay/internal/handlers"
	"gamepay/internal/middleware"
	"gamepay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Wallet *handlers.WalletHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler
}

// SetupRoutes registers all application routes.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware, opAuth *middleware.OperatorAuth) {
	app.Get("/health", h.Health.Check)

	api := app.Group("/api/v1")

	wallets := api.Group("/wallets", opAuth.Handler)
	wallets.Post("/transfer-in", h.Wallet.TransferIn)
	wallets.Post("/transfer-out", h.Wallet.TransferOut)
	wallets.Post("/game-transfer-in", h.Wallet.GameTransferIn)
	wallets.Post("/game-transfer-out", h.Wallet.GameTransferOut)
	wallets.Post("/stake", h.Wallet.Stake)
	wallets.Post("/payoff", h.Wallet.Payoff)
	wallets.Post("/cancel-stake", h.Wallet.CancelStake)
	wallets.Post("/cancel-payoff", h.Wallet.CancelPayoff)
	wallets.Post("/adjust", h.Wallet.Adjust)
	wallets.Get("/balance", h.Wallet.GetBalance)
	wallets.Get("/translog", h.Wallet.QueryTransLog)

	admin := api.Group("/admin", auth.Handler, middleware.RequireRole(models.RoleSupervisor, models.RoleAdmin))
	admin.Post("/cache/operators/:code/flush", h.Admin.FlushOperator)
	admin.Post("/cache/vendors/:code/flush", h.Admin.FlushVendor)
	admin.Post("/cache/operators/:code/vendors/:vendor/flush", h.Admin.FlushOperatorVendor)
}
