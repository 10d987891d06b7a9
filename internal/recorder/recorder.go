package recorder

// Run is one reconciliation snapshot: the vault's summed accounting
// balances against the custody balance reported by the asset service.
type Run struct {
	Timestamp    int64
	VaultBalance uint64
	AssetBalance uint64
	Drift        int64
	Balanced     bool
}

// Recorder persists reconciliation history for offline inspection.
type Recorder interface {
	RecordRun(run Run) error
	Close() error
}
