package vault

import (
	"fmt"

	"github.com/agentvault/agentvault/internal/asset"
	"github.com/agentvault/agentvault/internal/events"
)

// Options configures a vault engine. Asset, Custody, Admin and Treasury are
// required; Clock and Sink default to the system clock and a no-op sink.
type Options struct {
	Asset    asset.Transferor
	Clock    Clock
	Sink     events.Sink
	Custody  Address
	Admin    Address
	Treasury Address
	FeeBps   uint64
}

func (o *Options) normalize() error {
	if o.Asset == nil {
		return fmt.Errorf("asset transferor is required")
	}
	if o.Custody.IsZero() {
		return fmt.Errorf("custody address is required")
	}
	if o.Admin.IsZero() {
		return fmt.Errorf("admin address is required")
	}
	if o.Treasury.IsZero() {
		return fmt.Errorf("treasury address is required")
	}
	if o.FeeBps > MaxFeeBps {
		return fmt.Errorf("fee rate %d exceeds maximum %d", o.FeeBps, MaxFeeBps)
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Sink == nil {
		o.Sink = events.Nop{}
	}
	return nil
}
