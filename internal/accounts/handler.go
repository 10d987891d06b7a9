package accounts

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/httperr"
	"github.com/agentvault/agentvault/internal/vault"
)

// Handler exposes fund account endpoints: deposits, withdrawals, limits and
// account views.
type Handler struct {
	vault vault.Vault
}

// NewHandler constructs an accounts handler.
func NewHandler(v vault.Vault) *Handler {
	return &Handler{vault: v}
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

type limitsRequest struct {
	DailyLimit uint64 `json:"daily_limit"`
	PerTxLimit uint64 `json:"per_tx_limit"`
}

// Deposit credits a fund's accounting balance from its external account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	balance, err := h.vault.Deposit(c.UserContext(), fund, req.Amount)
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"fund": fund, "balance": balance})
}

// Withdraw pays out from custody to the fund's external account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	balance, err := h.vault.Withdraw(c.UserContext(), fund, req.Amount)
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"fund": fund, "balance": balance})
}

// Get returns the fund's account snapshot.
func (h *Handler) Get(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}

	acct, err := h.vault.GetAccount(c.UserContext(), fund)
	if err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{
		"fund":           acct.Fund,
		"balance":        acct.Balance,
		"daily_limit":    acct.DailyLimit,
		"per_tx_limit":   acct.PerTxLimit,
		"today_spent":    acct.TodaySpent,
		"last_reset_day": acct.LastResetDay,
		"bots":           acct.Bots,
	})
}

// SetLimits overwrites the fund's spending caps.
func (h *Handler) SetLimits(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	var req limitsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.vault.SetLimits(c.UserContext(), fund, req.DailyLimit, req.PerTxLimit); err != nil {
		return httperr.FromVault(err)
	}
	return c.JSON(fiber.Map{
		"fund":         fund,
		"daily_limit":  req.DailyLimit,
		"per_tx_limit": req.PerTxLimit,
	})
}

// Purchases lists the fund's ledger records, oldest first, paginated.
func (h *Handler) Purchases(c *fiber.Ctx) error {
	fund, err := vault.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid fund address")
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	ids, err := h.vault.ListByFund(c.UserContext(), fund)
	if err != nil {
		return httperr.FromVault(err)
	}
	total := len(ids)
	if offset > 0 {
		if offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[offset:]
		}
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	records := make([]vault.Purchase, 0, len(ids))
	for _, id := range ids {
		purchase, err := h.vault.GetPurchase(c.UserContext(), id)
		if err != nil {
			return httperr.FromVault(err)
		}
		records = append(records, purchase)
	}
	return c.JSON(fiber.Map{"fund": fund, "purchases": records, "total": total})
}
