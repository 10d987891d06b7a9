package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/bots"
	"github.com/agentvault/agentvault/internal/vault"
)

// RegisterBotRoutes wires bot authorization endpoints.
func RegisterBotRoutes(r fiber.Router, v vault.Vault) {
	h := bots.NewHandler(v)
	r.Post("/funds/:address/bots", h.Authorize)
	r.Delete("/funds/:address/bots/:bot", h.Revoke)
	r.Get("/funds/:address/bots/:bot", h.Check)
}
