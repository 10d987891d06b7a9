package admin

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/httperr"
	"github.com/agentvault/agentvault/internal/vault"
)

// Handler exposes the privileged fee-policy endpoints. Routes wiring places
// it behind the admin bearer-key middleware; the caller identity passed to
// the core is the configured administrator address.
type Handler struct {
	vault vault.Vault
	admin vault.Address
}

// NewHandler constructs an admin handler.
func NewHandler(v vault.Vault, admin vault.Address) *Handler {
	return &Handler{vault: v, admin: admin}
}

type feeRequest struct {
	Bps uint64 `json:"bps"`
}

type treasuryRequest struct {
	Address string `json:"address"`
}

// SetFee updates the platform fee rate.
func (h *Handler) SetFee(c *fiber.Ctx) error {
	var req feeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.vault.SetFeeRate(c.UserContext(), h.admin, req.Bps); err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{"platform_fee_bps": req.Bps})
}

// SetTreasury updates the fee destination address.
func (h *Handler) SetTreasury(c *fiber.Ctx) error {
	var req treasuryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	treasury, err := vault.ParseAddress(req.Address)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid treasury address")
	}

	if err := h.vault.SetTreasury(c.UserContext(), h.admin, treasury); err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{"treasury": treasury})
}
