package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder appends reconciliation runs to a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad hoc reads do not block the reconciler's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reconcile_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			vault_balance INTEGER NOT NULL,
			asset_balance INTEGER NOT NULL,
			drift         INTEGER NOT NULL,
			balanced      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reconcile_ts ON reconcile_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:32], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	balanced := 0
	if run.Balanced {
		balanced = 1
	}
	_, err := r.db.Exec(`INSERT INTO reconcile_runs
		(timestamp, vault_balance, asset_balance, drift, balanced)
		VALUES (?,?,?,?,?)`,
		run.Timestamp, int64(run.VaultBalance), int64(run.AssetBalance),
		run.Drift, balanced,
	)
	return err
}

// LastRun returns the most recent recorded run, or false when the
// history is empty.
func (r *SQLiteRecorder) LastRun() (Run, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		run      Run
		vault    int64
		asset    int64
		balanced int
	)
	err := r.db.QueryRow(`SELECT timestamp, vault_balance, asset_balance, drift, balanced
		FROM reconcile_runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.Timestamp, &vault, &asset, &run.Drift, &balanced)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	run.VaultBalance = uint64(vault)
	run.AssetBalance = uint64(asset)
	run.Balanced = balanced == 1
	return run, true, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
