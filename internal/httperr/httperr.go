// Package httperr maps vault sentinel errors onto HTTP statuses for the
// Fiber handlers.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/vault"
)

// FromVault translates a core error into a fiber.Error with the right
// status. Unknown errors become 500s.
func FromVault(err error) error {
	switch {
	case errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidIdentity),
		errors.Is(err, vault.ErrLimitOrdering),
		errors.Is(err, vault.ErrFeeTooHigh):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, vault.ErrUnauthorized):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, vault.ErrNotAuthorized):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, vault.ErrAlreadyAuthorized):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrExceedsPerTxLimit),
		errors.Is(err, vault.ErrExceedsDailyLimit):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, vault.ErrInvalidPurchaseID):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, vault.ErrTransferFailed):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
