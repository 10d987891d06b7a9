package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agentvault/agentvault/internal/asset"
	"github.com/agentvault/agentvault/internal/recorder"
	"github.com/agentvault/agentvault/internal/vault"
)

// Reconciler periodically audits that the vault's internal accounting
// matches the balance the asset service reports for the custody account.
// Purchases and withdrawals move real value out of custody, so the two
// views must agree at all times; any drift means a settlement leg was
// lost or replayed.
type Reconciler struct {
	vault    vault.Vault
	assets   asset.Transferor
	custody  vault.Address
	recorder recorder.Recorder
	logger   *slog.Logger
	cron     *cron.Cron
}

func New(v vault.Vault, assets asset.Transferor, custody vault.Address, rec recorder.Recorder, logger *slog.Logger) *Reconciler {
	if rec == nil {
		rec = recorder.Noop{}
	}
	return &Reconciler{
		vault:    v,
		assets:   assets,
		custody:  custody,
		recorder: rec,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the audit on the given cron spec and starts the scheduler.
func (r *Reconciler) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("reconcile run failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("register reconcile job: %w", err)
	}
	r.cron.Start()
	r.logger.Info("reconciler started", slog.String("cron", spec))
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce performs a single audit and records the outcome.
func (r *Reconciler) RunOnce(ctx context.Context) (recorder.Run, error) {
	stats, err := r.vault.Stats(ctx)
	if err != nil {
		return recorder.Run{}, fmt.Errorf("vault stats: %w", err)
	}
	held, err := r.assets.BalanceOf(ctx, r.custody.String())
	if err != nil {
		return recorder.Run{}, fmt.Errorf("custody balance: %w", err)
	}

	run := recorder.Run{
		Timestamp:    time.Now().Unix(),
		VaultBalance: stats.TotalBalance,
		AssetBalance: held,
		Drift:        int64(held) - int64(stats.TotalBalance),
		Balanced:     held == stats.TotalBalance,
	}

	if run.Balanced {
		r.logger.Info("reconcile balanced",
			slog.Uint64("total_balance", run.VaultBalance),
		)
	} else {
		r.logger.Error("reconcile drift detected",
			slog.Uint64("vault_balance", run.VaultBalance),
			slog.Uint64("asset_balance", run.AssetBalance),
			slog.Int64("drift", run.Drift),
		)
	}

	if err := r.recorder.RecordRun(run); err != nil {
		r.logger.Error("record reconcile run", slog.String("error", err.Error()))
	}
	return run, nil
}
