package purchases

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/httperr"
	"github.com/agentvault/agentvault/internal/vault"
)

// Handler exposes purchase execution, ledger lookups and platform stats.
type Handler struct {
	vault   vault.Vault
	custody vault.Address
}

// NewHandler constructs a purchases handler.
func NewHandler(v vault.Vault, custody vault.Address) *Handler {
	return &Handler{vault: v, custody: custody}
}

type executeRequest struct {
	Fund      string `json:"fund"`
	Bot       string `json:"bot"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Metadata  string `json:"metadata"`
}

// Execute runs a bot-initiated purchase against a fund.
func (h *Handler) Execute(c *fiber.Ctx) error {
	var req executeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	fund, err := vault.ParseAddress(req.Fund)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	bot, err := vault.ParseAddress(req.Bot)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid bot address")
	}
	recipient, err := vault.ParseAddress(req.Recipient)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid recipient address")
	}

	res, err := h.vault.Execute(c.UserContext(), vault.ExecuteRequest{
		Fund:      fund,
		Bot:       bot,
		Recipient: recipient,
		Amount:    req.Amount,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"purchase_id": res.PurchaseID,
		"fee":         res.Fee,
		"balance":     res.NewBalance,
	})
}

// Get returns one immutable ledger record.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid purchase id")
	}

	purchase, err := h.vault.GetPurchase(c.UserContext(), id)
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(purchase)
}

// Count returns the total number of purchases ever committed.
func (h *Handler) Count(c *fiber.Ctx) error {
	count, err := h.vault.Count(c.UserContext())
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// Stats returns the platform summary.
func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.vault.Stats(c.UserContext())
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{
		"platform_fee_bps": stats.FeeBps,
		"treasury":         stats.Treasury,
		"custody":          h.custody,
		"purchase_count":   stats.Purchases,
		"fund_count":       stats.Funds,
		"total_balance":    stats.TotalBalance,
	})
}
