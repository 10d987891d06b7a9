package bots

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/httperr"
	"github.com/agentvault/agentvault/internal/vault"
)

// Handler exposes the per-fund bot authorization endpoints.
type Handler struct {
	vault vault.Vault
}

// NewHandler constructs a bots handler.
func NewHandler(v vault.Vault) *Handler {
	return &Handler{vault: v}
}

type authorizeRequest struct {
	Bot string `json:"bot"`
}

// Authorize grants purchasing authority to a bot.
func (h *Handler) Authorize(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	var req authorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	bot, err := vault.ParseAddress(req.Bot)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid bot address")
	}

	if err := h.vault.Authorize(c.UserContext(), fund, bot); err != nil {
		return httperr.FromVault(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"fund": fund, "bot": bot, "authorized": true})
}

// Revoke withdraws a bot's purchasing authority.
func (h *Handler) Revoke(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	bot, err := vault.ParseAddress(c.Params("bot"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid bot address")
	}

	if err := h.vault.Revoke(c.UserContext(), fund, bot); err != nil {
		return httperr.FromVault(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Check reports whether a bot is authorized for a fund.
func (h *Handler) Check(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	bot, err := vault.ParseAddress(c.Params("bot"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid bot address")
	}

	authorized, err := h.vault.IsAuthorized(c.UserContext(), fund, bot)
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{"fund": fund, "bot": bot, "authorized": authorized})
}
