package reconcile

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentvault/agentvault/internal/asset"
	"github.com/agentvault/agentvault/internal/events"
	"github.com/agentvault/agentvault/internal/recorder"
	"github.com/agentvault/agentvault/internal/vault"
)

type captureRecorder struct {
	mu   sync.Mutex
	runs []recorder.Run
}

func (c *captureRecorder) RecordRun(run recorder.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, run)
	return nil
}

func (c *captureRecorder) Close() error { return nil }

func testAddr(c byte) vault.Address {
	b := make([]byte, 40)
	for i := range b {
		b[i] = c
	}
	return vault.Address("0x" + string(b))
}

func TestRunOnceBalanced(t *testing.T) {
	ctx := context.Background()
	custody := testAddr('c')
	fund := testAddr('1')

	ledger := asset.NewInMemory()
	v, err := vault.NewMemory(vault.Options{
		Asset:    ledger,
		Sink:     events.Nop{},
		Custody:  custody,
		Admin:    testAddr('d'),
		Treasury: testAddr('e'),
		FeeBps:   200,
	})
	require.NoError(t, err)

	ledger.Mint(fund.String(), 500_000000)
	_, err = v.Deposit(ctx, fund, 500_000000)
	require.NoError(t, err)

	rec := &captureRecorder{}
	r := New(v, ledger, custody, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	run, err := r.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, run.Balanced)
	require.Equal(t, uint64(500_000000), run.VaultBalance)
	require.Equal(t, uint64(500_000000), run.AssetBalance)
	require.Zero(t, run.Drift)
	require.Len(t, rec.runs, 1)
}

func TestRunOnceDetectsDrift(t *testing.T) {
	ctx := context.Background()
	custody := testAddr('c')
	fund := testAddr('1')

	ledger := asset.NewInMemory()
	v, err := vault.NewMemory(vault.Options{
		Asset:    ledger,
		Sink:     events.Nop{},
		Custody:  custody,
		Admin:    testAddr('d'),
		Treasury: testAddr('e'),
		FeeBps:   200,
	})
	require.NoError(t, err)

	ledger.Mint(fund.String(), 300_000000)
	_, err = v.Deposit(ctx, fund, 300_000000)
	require.NoError(t, err)

	// Extra units appearing in custody that the vault never accounted for.
	ledger.Mint(custody.String(), 7_000000)

	rec := &captureRecorder{}
	r := New(v, ledger, custody, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	run, err := r.RunOnce(ctx)
	require.NoError(t, err)
	require.False(t, run.Balanced)
	require.Equal(t, int64(7_000000), run.Drift)
	require.Len(t, rec.runs, 1)
	require.False(t, rec.runs[0].Balanced)
}
