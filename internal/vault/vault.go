package vault

import (
	"context"
	"errors"
)

const (
	// FeeDenominator is the basis-point denominator for platform fees.
	FeeDenominator = 10_000

	// MaxFeeBps caps the platform fee at 10%.
	MaxFeeBps = 1_000
)

var (
	// ErrInvalidAmount occurs when a zero amount is supplied where a positive
	// amount is required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidIdentity occurs when the null identity is used where a real
	// identity is required.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrInsufficientBalance occurs when a debit or withdrawal exceeds the
	// fund's accounting balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotAuthorized occurs when a bot is not in the fund's authorized set,
	// or a revoke targets an absent bot.
	ErrNotAuthorized = errors.New("bot not authorized")

	// ErrAlreadyAuthorized occurs when authorizing a bot that is already a
	// member of the fund's set.
	ErrAlreadyAuthorized = errors.New("bot already authorized")

	// ErrLimitOrdering occurs when the per-transaction limit would exceed a
	// finite daily limit.
	ErrLimitOrdering = errors.New("per-transaction limit exceeds daily limit")

	// ErrExceedsPerTxLimit occurs when a purchase principal exceeds the
	// fund's per-transaction cap.
	ErrExceedsPerTxLimit = errors.New("exceeds per-transaction limit")

	// ErrExceedsDailyLimit occurs when a purchase principal would push the
	// fund's daily spend over its cap.
	ErrExceedsDailyLimit = errors.New("exceeds daily limit")

	// ErrFeeTooHigh occurs when an admin sets a fee rate above MaxFeeBps.
	ErrFeeTooHigh = errors.New("fee rate too high")

	// ErrInvalidPurchaseID occurs on ledger lookups past the end of the log.
	ErrInvalidPurchaseID = errors.New("invalid purchase id")

	// ErrTransferFailed wraps a failure reported by the external asset
	// transfer capability. All in-process state is rolled back before it is
	// surfaced.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrUnauthorized occurs when an admin-only operation is invoked by a
	// caller other than the configured administrator.
	ErrUnauthorized = errors.New("caller is not the administrator")
)

// Account is a point-in-time view of a fund's accounting state. Unknown
// funds read as the zero account; records materialize lazily on first write.
type Account struct {
	Fund         Address
	Balance      uint64
	DailyLimit   uint64 // 0 = unlimited
	PerTxLimit   uint64 // 0 = unlimited
	TodaySpent   uint64
	LastResetDay int64
	Bots         []Address
}

// Purchase is one committed debit. Records are immutable once appended and
// ids are dense, assigned in commit order.
type Purchase struct {
	ID        uint64  `json:"id"`
	Fund      Address `json:"fund"`
	Bot       Address `json:"bot"`
	Recipient Address `json:"recipient"`
	Amount    uint64  `json:"amount"`
	Fee       uint64  `json:"fee"`
	Timestamp int64   `json:"timestamp"`
	Metadata  string  `json:"metadata"`
}

// Stats summarizes platform-wide state for the stats endpoint and the
// reconciliation audit.
type Stats struct {
	FeeBps       uint64
	Treasury     Address
	Purchases    uint64
	Funds        uint64
	TotalBalance uint64
}

// ExecuteRequest carries the inputs of a bot-initiated purchase.
type ExecuteRequest struct {
	Fund      Address
	Bot       Address
	Recipient Address
	Amount    uint64
	Metadata  string
}

// ExecuteResult describes a committed purchase.
type ExecuteResult struct {
	PurchaseID uint64
	Fee        uint64
	NewBalance uint64
}

// Vault is the custodial accounting and authorization engine. Memory and
// Postgres implementations share exact semantics; per-fund operations are
// mutually exclusive, operations on different funds may interleave freely.
type Vault interface {
	Deposit(ctx context.Context, fund Address, amount uint64) (uint64, error)
	Withdraw(ctx context.Context, fund Address, amount uint64) (uint64, error)
	Authorize(ctx context.Context, fund, bot Address) error
	Revoke(ctx context.Context, fund, bot Address) error
	SetLimits(ctx context.Context, fund Address, dailyLimit, perTxLimit uint64) error
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)

	SetFeeRate(ctx context.Context, caller Address, bps uint64) error
	SetTreasury(ctx context.Context, caller, treasury Address) error

	GetAccount(ctx context.Context, fund Address) (Account, error)
	IsAuthorized(ctx context.Context, fund, bot Address) (bool, error)
	GetPurchase(ctx context.Context, id uint64) (Purchase, error)
	ListByFund(ctx context.Context, fund Address) ([]uint64, error)
	Count(ctx context.Context) (uint64, error)
	Stats(ctx context.Context) (Stats, error)
}

// ComputeFee returns floor(amount * bps / FeeDenominator). The quotient and
// remainder are split so the product cannot overflow uint64 near the amount
// ceiling; the result is exactly the floor of the full-width product.
func ComputeFee(amount, bps uint64) uint64 {
	q, r := amount/FeeDenominator, amount%FeeDenominator
	return q*bps + r*bps/FeeDenominator
}
