package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/purchases"
	"github.com/agentvault/agentvault/internal/vault"
)

// RegisterPurchaseRoutes wires purchase execution and ledger endpoints.
func RegisterPurchaseRoutes(r fiber.Router, v vault.Vault, custody vault.Address) {
	h := purchases.NewHandler(v, custody)
	r.Post("/purchases", h.Execute)
	// Static segment before the id wildcard.
	r.Get("/purchases/count", h.Count)
	r.Get("/purchases/:id", h.Get)
	r.Get("/stats", h.Stats)
}
