package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/agents"
)

// RegisterAgentRoutes wires the agent marketplace endpoints.
func RegisterAgentRoutes(r fiber.Router, h *agents.Handler) {
	r.Post("/agents", h.Create)
	r.Get("/agents", h.List)
	r.Get("/agents/wallet/:address", h.GetByWallet)
	r.Get("/agents/:id", h.Get)
	r.Put("/agents/:id", h.Update)
	r.Delete("/agents/:id", h.Delete)
}
