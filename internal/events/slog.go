package events

import (
	"context"
	"log/slog"
)

// LoggerSink writes events to the structured logger. Always attached; the
// service log doubles as a human-readable event feed.
type LoggerSink struct {
	logger *slog.Logger
}

// NewLoggerSink constructs a logging sink.
func NewLoggerSink(logger *slog.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

func (s *LoggerSink) Emit(_ context.Context, event Event) {
	if s == nil || s.logger == nil {
		return
	}

	attrs := []any{slog.String("kind", event.Kind), slog.Int64("timestamp", event.Timestamp)}
	if event.Fund != "" {
		attrs = append(attrs, slog.String("fund", event.Fund))
	}
	if event.Bot != "" {
		attrs = append(attrs, slog.String("bot", event.Bot))
	}
	if event.Recipient != "" {
		attrs = append(attrs, slog.String("recipient", event.Recipient))
	}
	switch event.Kind {
	case KindDeposited, KindWithdrawn:
		attrs = append(attrs, slog.Uint64("amount", event.Amount), slog.Uint64("balance", event.Balance))
	case KindLimitsUpdated:
		attrs = append(attrs, slog.Uint64("daily_limit", event.DailyLimit), slog.Uint64("per_tx_limit", event.PerTxLimit))
	case KindPurchaseExecuted:
		attrs = append(attrs,
			slog.Uint64("purchase_id", event.PurchaseID),
			slog.Uint64("amount", event.Amount),
			slog.Uint64("fee", event.Fee))
	case KindFeeUpdated:
		attrs = append(attrs, slog.Uint64("fee_bps", event.FeeBps))
	case KindTreasuryUpdated:
		attrs = append(attrs, slog.String("treasury", event.Treasury))
	}

	s.logger.Info("vault event", attrs...)
}
