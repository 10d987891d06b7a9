package recorder

// Noop discards every run. Used when no reconciliation database is configured.
type Noop struct{}

func (Noop) RecordRun(Run) error { return nil }
func (Noop) Close() error        { return nil }
