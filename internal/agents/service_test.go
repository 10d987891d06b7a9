package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentvault/agentvault/internal/vault"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository())
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	agent, err := svc.Create(ctx, CreateInput{
		Name:   "ResearchGPT",
		Wallet: "0x1234567890123456789012345678901234567890",
		Price:  25_000000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), agent.ID)
	assert.True(t, agent.Active)

	got, err := svc.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, agent, got)

	got, err = svc.GetByWallet(ctx, "0x1234567890123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, got.ID)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Create(ctx, CreateInput{Wallet: "0x1234567890123456789012345678901234567890", Price: 1})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Create(ctx, CreateInput{Name: "A", Wallet: "0x1234567890123456789012345678901234567890"})
	assert.ErrorIs(t, err, vault.ErrInvalidAmount)

	_, err = svc.Create(ctx, CreateInput{Name: "A", Wallet: "not-an-address", Price: 1})
	assert.ErrorIs(t, err, vault.ErrInvalidIdentity)

	_, err = svc.Create(ctx, CreateInput{Name: "A", Wallet: vault.ZeroAddress.String(), Price: 1})
	assert.ErrorIs(t, err, vault.ErrInvalidIdentity)
}

func TestDuplicateWallet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	input := CreateInput{Name: "A", Wallet: "0x1234567890123456789012345678901234567890", Price: 1}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	input.Name = "B"
	_, err = svc.Create(ctx, input)
	assert.ErrorIs(t, err, ErrDuplicateWallet)
}

func TestListFilterAndPagination(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	inserted, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, len(SampleAgents), inserted)

	// Deactivate one entry.
	inactive := false
	_, err = svc.Update(ctx, 2, Update{Active: &inactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(SampleAgents))

	active, err := svc.List(ctx, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, len(SampleAgents)-1)

	page, err := svc.List(ctx, ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)
	assert.Equal(t, int64(3), page[1].ID)

	empty, err := svc.List(ctx, ListFilter{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	agent, err := svc.Create(ctx, CreateInput{Name: "A", Wallet: "0x1234567890123456789012345678901234567890", Price: 10})
	require.NoError(t, err)

	price := uint64(0)
	_, err = svc.Update(ctx, agent.ID, Update{Price: &price})
	assert.ErrorIs(t, err, vault.ErrInvalidAmount)

	name, newPrice := "Renamed", uint64(20)
	updated, err := svc.Update(ctx, agent.ID, Update{Name: &name, Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, uint64(20), updated.Price)
	assert.Equal(t, agent.Wallet, updated.Wallet, "wallet is immutable")

	require.NoError(t, svc.Delete(ctx, agent.ID))
	assert.ErrorIs(t, svc.Delete(ctx, agent.ID), ErrNotFound)
	_, err = svc.Get(ctx, agent.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleAgents), first)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, second)
}
