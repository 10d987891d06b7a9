package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/admin"
)

// RegisterAdminRoutes wires policy endpoints behind the admin bearer key.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler, auth fiber.Handler) {
	grp := r.Group("/admin", auth)
	grp.Put("/fee", h.SetFee)
	grp.Put("/treasury", h.SetTreasury)
}
