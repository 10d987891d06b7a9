package vault

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/agentvault/agentvault/internal/events"
)

type memAccount struct {
	mu           sync.Mutex
	balance      uint64
	dailyLimit   uint64
	perTxLimit   uint64
	todaySpent   uint64
	lastResetDay int64
	bots         map[Address]struct{}
}

// Memory is the reference vault engine: one mutex per fund, a dedicated
// ledger mutex taken inside the owning fund's critical section, and a
// read/write mutex over the global fee policy.
type Memory struct {
	opts Options

	mu       sync.Mutex // guards the accounts map, not account state
	accounts map[Address]*memAccount

	ledgerMu  sync.Mutex
	purchases []Purchase
	byFund    map[Address][]uint64

	policyMu sync.RWMutex
	feeBps   uint64
	treasury Address
}

// NewMemory constructs an in-memory vault engine.
func NewMemory(opts Options) (*Memory, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	return &Memory{
		opts:     opts,
		accounts: make(map[Address]*memAccount),
		byFund:   make(map[Address][]uint64),
		feeBps:   opts.FeeBps,
		treasury: opts.Treasury,
	}, nil
}

// account returns the fund's record, materializing it lazily.
func (m *Memory) account(fund Address) *memAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[fund]
	if !ok {
		acct = &memAccount{bots: make(map[Address]struct{})}
		m.accounts[fund] = acct
	}
	return acct
}

// peek returns the fund's record without materializing it.
func (m *Memory) peek(fund Address) *memAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[fund]
}

// Deposit moves amount from the fund's external account into custody and
// credits the accounting balance. Nothing is committed if the transfer fails.
func (m *Memory) Deposit(ctx context.Context, fund Address, amount uint64) (uint64, error) {
	if fund.IsZero() {
		return 0, ErrInvalidIdentity
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	acct := m.account(fund)
	acct.mu.Lock()

	if amount > math.MaxUint64-acct.balance {
		acct.mu.Unlock()
		return 0, ErrInvalidAmount
	}
	if err := m.opts.Asset.Transfer(ctx, fund.String(), m.opts.Custody.String(), amount); err != nil {
		acct.mu.Unlock()
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	acct.balance += amount
	balance := acct.balance
	acct.mu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindDeposited,
		Fund:      fund.String(),
		Amount:    amount,
		Balance:   balance,
		Timestamp: m.opts.Clock.Now().Unix(),
	})
	return balance, nil
}

// Withdraw debits the accounting balance and pays the fund's external
// account from custody. The debit is rolled back if the transfer fails.
func (m *Memory) Withdraw(ctx context.Context, fund Address, amount uint64) (uint64, error) {
	if fund.IsZero() {
		return 0, ErrInvalidIdentity
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	acct := m.account(fund)
	acct.mu.Lock()

	if amount > acct.balance {
		acct.mu.Unlock()
		return 0, ErrInsufficientBalance
	}
	acct.balance -= amount
	if err := m.opts.Asset.Transfer(ctx, m.opts.Custody.String(), fund.String(), amount); err != nil {
		acct.balance += amount
		acct.mu.Unlock()
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	balance := acct.balance
	acct.mu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindWithdrawn,
		Fund:      fund.String(),
		Amount:    amount,
		Balance:   balance,
		Timestamp: m.opts.Clock.Now().Unix(),
	})
	return balance, nil
}

// Authorize adds a bot to the fund's authorized set.
func (m *Memory) Authorize(ctx context.Context, fund, bot Address) error {
	if fund.IsZero() || bot.IsZero() {
		return ErrInvalidIdentity
	}

	acct := m.account(fund)
	acct.mu.Lock()
	if _, ok := acct.bots[bot]; ok {
		acct.mu.Unlock()
		return ErrAlreadyAuthorized
	}
	acct.bots[bot] = struct{}{}
	acct.mu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindBotAuthorized,
		Fund:      fund.String(),
		Bot:       bot.String(),
		Timestamp: m.opts.Clock.Now().Unix(),
	})
	return nil
}

// Revoke removes a bot from the fund's authorized set.
func (m *Memory) Revoke(ctx context.Context, fund, bot Address) error {
	if fund.IsZero() || bot.IsZero() {
		return ErrInvalidIdentity
	}

	acct := m.account(fund)
	acct.mu.Lock()
	if _, ok := acct.bots[bot]; !ok {
		acct.mu.Unlock()
		return ErrNotAuthorized
	}
	delete(acct.bots, bot)
	acct.mu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindBotRevoked,
		Fund:      fund.String(),
		Bot:       bot.String(),
		Timestamp: m.opts.Clock.Now().Unix(),
	})
	return nil
}

// SetLimits overwrites both caps unconditionally. The current day's spend is
// deliberately not validated against the new limits.
func (m *Memory) SetLimits(ctx context.Context, fund Address, dailyLimit, perTxLimit uint64) error {
	if fund.IsZero() {
		return ErrInvalidIdentity
	}
	if dailyLimit != 0 && perTxLimit > dailyLimit {
		return ErrLimitOrdering
	}

	acct := m.account(fund)
	acct.mu.Lock()
	acct.dailyLimit = dailyLimit
	acct.perTxLimit = perTxLimit
	acct.mu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:       events.KindLimitsUpdated,
		Fund:       fund.String(),
		DailyLimit: dailyLimit,
		PerTxLimit: perTxLimit,
		Timestamp:  m.opts.Clock.Now().Unix(),
	})
	return nil
}

// Execute runs the purchase pipeline: authorization, day-window reset, limit
// reservation, fee computation, debit, both settlement transfers, ledger
// append. All state mutations commit together or not at all.
func (m *Memory) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	if req.Fund.IsZero() || req.Recipient.IsZero() {
		return ExecuteResult{}, ErrInvalidIdentity
	}
	if req.Amount == 0 {
		return ExecuteResult{}, ErrInvalidAmount
	}

	acct := m.account(req.Fund)
	acct.mu.Lock()

	if _, ok := acct.bots[req.Bot]; !ok {
		acct.mu.Unlock()
		return ExecuteResult{}, ErrNotAuthorized
	}

	now := m.opts.Clock.Now()
	if day := dayIndex(now); day > acct.lastResetDay {
		acct.todaySpent = 0
		acct.lastResetDay = day
	}

	if acct.perTxLimit != 0 && req.Amount > acct.perTxLimit {
		acct.mu.Unlock()
		return ExecuteResult{}, ErrExceedsPerTxLimit
	}
	// The spend counter must never wrap; a sum past the uint64 ceiling
	// exceeds any representable daily cap.
	if req.Amount > math.MaxUint64-acct.todaySpent {
		acct.mu.Unlock()
		return ExecuteResult{}, ErrExceedsDailyLimit
	}
	if acct.dailyLimit != 0 && acct.todaySpent+req.Amount > acct.dailyLimit {
		acct.mu.Unlock()
		return ExecuteResult{}, ErrExceedsDailyLimit
	}

	m.policyMu.RLock()
	feeBps, treasury := m.feeBps, m.treasury
	m.policyMu.RUnlock()

	fee := ComputeFee(req.Amount, feeBps)
	if fee > math.MaxUint64-req.Amount {
		acct.mu.Unlock()
		return ExecuteResult{}, ErrInvalidAmount
	}
	total := req.Amount + fee
	if acct.balance < total {
		acct.mu.Unlock()
		return ExecuteResult{}, ErrInsufficientBalance
	}

	// Stage the mutation; undone wholesale if either transfer fails.
	acct.balance -= total
	acct.todaySpent += req.Amount

	custody := m.opts.Custody.String()
	if err := m.opts.Asset.Transfer(ctx, custody, req.Recipient.String(), req.Amount); err != nil {
		acct.balance += total
		acct.todaySpent -= req.Amount
		acct.mu.Unlock()
		return ExecuteResult{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if fee > 0 {
		if err := m.opts.Asset.Transfer(ctx, custody, treasury.String(), fee); err != nil {
			// Compensate the recipient leg before rolling back; best effort.
			_ = m.opts.Asset.Transfer(ctx, req.Recipient.String(), custody, req.Amount)
			acct.balance += total
			acct.todaySpent -= req.Amount
			acct.mu.Unlock()
			return ExecuteResult{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	purchase := Purchase{
		Fund:      req.Fund,
		Bot:       req.Bot,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Fee:       fee,
		Timestamp: now.Unix(),
		Metadata:  req.Metadata,
	}

	// The ledger mutex nests inside the fund section so ids land in true
	// commit order and listings never observe gaps.
	m.ledgerMu.Lock()
	purchase.ID = uint64(len(m.purchases))
	m.purchases = append(m.purchases, purchase)
	m.byFund[req.Fund] = append(m.byFund[req.Fund], purchase.ID)
	m.ledgerMu.Unlock()

	balance := acct.balance
	acct.mu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:       events.KindPurchaseExecuted,
		Fund:       req.Fund.String(),
		Bot:        req.Bot.String(),
		Recipient:  req.Recipient.String(),
		Amount:     req.Amount,
		Fee:        fee,
		PurchaseID: purchase.ID,
		Metadata:   req.Metadata,
		Timestamp:  purchase.Timestamp,
	})
	return ExecuteResult{PurchaseID: purchase.ID, Fee: fee, NewBalance: balance}, nil
}

// SetFeeRate updates the platform fee. Admin only.
func (m *Memory) SetFeeRate(ctx context.Context, caller Address, bps uint64) error {
	if caller != m.opts.Admin {
		return ErrUnauthorized
	}
	if bps > MaxFeeBps {
		return ErrFeeTooHigh
	}

	m.policyMu.Lock()
	m.feeBps = bps
	m.policyMu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindFeeUpdated,
		FeeBps:    bps,
		Timestamp: m.opts.Clock.Now().Unix(),
	})
	return nil
}

// SetTreasury updates the fee destination. Admin only.
func (m *Memory) SetTreasury(ctx context.Context, caller, treasury Address) error {
	if caller != m.opts.Admin {
		return ErrUnauthorized
	}
	if treasury.IsZero() {
		return ErrInvalidIdentity
	}

	m.policyMu.Lock()
	m.treasury = treasury
	m.policyMu.Unlock()

	m.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindTreasuryUpdated,
		Treasury:  treasury.String(),
		Timestamp: m.opts.Clock.Now().Unix(),
	})
	return nil
}

// GetAccount returns a snapshot of the fund's state. Unknown funds read as
// the zero account.
func (m *Memory) GetAccount(_ context.Context, fund Address) (Account, error) {
	if fund.IsZero() {
		return Account{}, ErrInvalidIdentity
	}

	acct := m.peek(fund)
	if acct == nil {
		return Account{Fund: fund, Bots: []Address{}}, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	bots := make([]Address, 0, len(acct.bots))
	for bot := range acct.bots {
		bots = append(bots, bot)
	}
	sort.Slice(bots, func(i, j int) bool { return bots[i] < bots[j] })
	return Account{
		Fund:         fund,
		Balance:      acct.balance,
		DailyLimit:   acct.dailyLimit,
		PerTxLimit:   acct.perTxLimit,
		TodaySpent:   acct.todaySpent,
		LastResetDay: acct.lastResetDay,
		Bots:         bots,
	}, nil
}

// IsAuthorized reports whether the bot may debit the fund.
func (m *Memory) IsAuthorized(_ context.Context, fund, bot Address) (bool, error) {
	if fund.IsZero() {
		return false, ErrInvalidIdentity
	}

	acct := m.peek(fund)
	if acct == nil {
		return false, nil
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	_, ok := acct.bots[bot]
	return ok, nil
}

// GetPurchase returns the immutable record at the given ledger position.
func (m *Memory) GetPurchase(_ context.Context, id uint64) (Purchase, error) {
	m.ledgerMu.Lock()
	defer m.ledgerMu.Unlock()
	if id >= uint64(len(m.purchases)) {
		return Purchase{}, ErrInvalidPurchaseID
	}
	return m.purchases[id], nil
}

// ListByFund returns the fund's purchase ids in insertion order.
func (m *Memory) ListByFund(_ context.Context, fund Address) ([]uint64, error) {
	if fund.IsZero() {
		return nil, ErrInvalidIdentity
	}

	m.ledgerMu.Lock()
	defer m.ledgerMu.Unlock()
	ids := m.byFund[fund]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out, nil
}

// Count returns the total number of purchases ever appended.
func (m *Memory) Count(_ context.Context) (uint64, error) {
	m.ledgerMu.Lock()
	defer m.ledgerMu.Unlock()
	return uint64(len(m.purchases)), nil
}

// Stats summarizes platform state.
func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	m.policyMu.RLock()
	stats := Stats{FeeBps: m.feeBps, Treasury: m.treasury}
	m.policyMu.RUnlock()

	m.mu.Lock()
	accounts := make([]*memAccount, 0, len(m.accounts))
	for _, acct := range m.accounts {
		accounts = append(accounts, acct)
	}
	m.mu.Unlock()

	stats.Funds = uint64(len(accounts))
	for _, acct := range accounts {
		acct.mu.Lock()
		stats.TotalBalance += acct.balance
		acct.mu.Unlock()
	}

	count, err := m.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Purchases = count
	return stats, nil
}

var _ Vault = (*Memory)(nil)
