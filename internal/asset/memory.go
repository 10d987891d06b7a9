package asset

import (
	"context"
	"sync"
)

// InMemory simulates the external asset service with a concurrency-safe
// balance map. Used in development mode and tests; a real settlement client
// replaces it at integration time.
type InMemory struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

// NewInMemory creates an empty in-memory asset ledger.
func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[string]uint64)}
}

// Mint credits an account out of thin air. Test and dev helper; the real
// asset service has no equivalent.
func (a *InMemory) Mint(account string, amount uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[account] += amount
}

// Transfer moves amount between accounts, failing closed when the source
// balance is insufficient.
func (a *InMemory) Transfer(_ context.Context, from, to string, amount uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.balances[from] < amount {
		return ErrInsufficientFunds
	}
	a.balances[from] -= amount
	a.balances[to] += amount
	return nil
}

// BalanceOf returns the balance held by an account.
func (a *InMemory) BalanceOf(_ context.Context, account string) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	balance, ok := a.balances[account]
	if !ok {
		return 0, ErrUnknownAccount
	}
	return balance, nil
}
