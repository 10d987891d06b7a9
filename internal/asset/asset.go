package asset

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks balance to
	// cover a requested transfer.
	ErrInsufficientFunds = errors.New("insufficient asset funds")

	// ErrUnknownAccount occurs when a balance query targets an account the
	// asset service has never seen.
	ErrUnknownAccount = errors.New("unknown asset account")
)

// Transferor is the external value-transfer capability the vault consumes.
// Transfers either complete or fail synchronously; the vault never retries.
// Addresses are opaque account strings owned by the asset service.
type Transferor interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
	BalanceOf(ctx context.Context, account string) (uint64, error)
}
