package events

import "context"

// Event kinds emitted by the vault core, one per committed mutation.
const (
	KindDeposited        = "deposited"
	KindWithdrawn        = "withdrawn"
	KindBotAuthorized    = "bot_authorized"
	KindBotRevoked       = "bot_revoked"
	KindLimitsUpdated    = "limits_updated"
	KindPurchaseExecuted = "purchase_executed"
	KindFeeUpdated       = "platform_fee_updated"
	KindTreasuryUpdated  = "treasury_updated"
)

// Event is the post-commit notification for a vault mutation. Only the
// fields relevant to the kind are populated.
type Event struct {
	Kind       string `json:"kind"`
	Fund       string `json:"fund,omitempty"`
	Bot        string `json:"bot,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	Amount     uint64 `json:"amount,omitempty"`
	Fee        uint64 `json:"fee,omitempty"`
	Balance    uint64 `json:"balance,omitempty"`
	DailyLimit uint64 `json:"daily_limit,omitempty"`
	PerTxLimit uint64 `json:"per_tx_limit,omitempty"`
	FeeBps     uint64 `json:"fee_bps,omitempty"`
	Treasury   string `json:"treasury,omitempty"`
	PurchaseID uint64 `json:"purchase_id,omitempty"`
	Metadata   string `json:"metadata,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Sink receives vault events after the owning operation has committed.
// Delivery is best-effort: a sink failure is logged by the emitter and never
// propagated into the operation result.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		s.Emit(ctx, event)
	}
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}
