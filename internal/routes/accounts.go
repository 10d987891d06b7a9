package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/accounts"
	"github.com/agentvault/agentvault/internal/vault"
)

// RegisterAccountRoutes wires fund account endpoints.
func RegisterAccountRoutes(r fiber.Router, v vault.Vault) {
	h := accounts.NewHandler(v)
	r.Post("/funds/:address/deposits", h.Deposit)
	r.Post("/funds/:address/withdrawals", h.Withdraw)
	r.Get("/funds/:address", h.Get)
	r.Get("/funds/:address/purchases", h.Purchases)
	r.Put("/funds/:address/limits", h.SetLimits)
}
