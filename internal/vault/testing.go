package vault

// SeedBalance sets a fund's accounting balance directly, bypassing the asset
// capability. Test helper for the in-memory engine only.
func SeedBalance(v Vault, fund Address, amount uint64) {
	if m, ok := v.(*Memory); ok {
		acct := m.account(fund)
		acct.mu.Lock()
		defer acct.mu.Unlock()
		acct.balance = amount
	}
}
