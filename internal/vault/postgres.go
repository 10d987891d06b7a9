package vault

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentvault/agentvault/internal/events"
)

// Postgres is the durable vault engine. Per-fund mutual exclusion comes from
// SELECT ... FOR UPDATE on the fund row; the two-phase commit of Execute is
// the enclosing transaction, rolled back when a settlement transfer fails.
type Postgres struct {
	db   *pgxpool.Pool
	opts Options
}

// NewPostgres constructs a Postgres-backed vault engine.
func NewPostgres(db *pgxpool.Pool, opts Options) (*Postgres, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	return &Postgres{db: db, opts: opts}, nil
}

// Migrate creates the vault schema and seeds the policy and counter
// singletons. Safe to run repeatedly.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vault_accounts (
			fund           TEXT PRIMARY KEY,
			balance        BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			daily_limit    BIGINT NOT NULL DEFAULT 0,
			per_tx_limit   BIGINT NOT NULL DEFAULT 0,
			today_spent    BIGINT NOT NULL DEFAULT 0,
			last_reset_day BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS vault_bots (
			fund TEXT NOT NULL REFERENCES vault_accounts(fund),
			bot  TEXT NOT NULL,
			PRIMARY KEY (fund, bot)
		)`,
		`CREATE TABLE IF NOT EXISTS vault_purchases (
			id        BIGINT PRIMARY KEY,
			fund      TEXT NOT NULL,
			bot       TEXT NOT NULL,
			recipient TEXT NOT NULL,
			amount    BIGINT NOT NULL,
			fee       BIGINT NOT NULL,
			ts        BIGINT NOT NULL,
			metadata  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vault_purchases_fund ON vault_purchases(fund, id)`,
		`CREATE TABLE IF NOT EXISTS vault_counters (
			name  TEXT PRIMARY KEY,
			value BIGINT NOT NULL
		)`,
		`INSERT INTO vault_counters (name, value) VALUES ('purchase_id', 0)
			ON CONFLICT (name) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS vault_policy (
			id       SMALLINT PRIMARY KEY CHECK (id = 1),
			fee_bps  BIGINT NOT NULL,
			treasury TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("migrate vault schema: %w", err)
		}
	}
	_, err := p.db.Exec(ctx, `INSERT INTO vault_policy (id, fee_bps, treasury) VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`, int64(p.opts.FeeBps), p.opts.Treasury.String())
	if err != nil {
		return fmt.Errorf("seed vault policy: %w", err)
	}
	return nil
}

type pgAccount struct {
	balance      uint64
	dailyLimit   uint64
	perTxLimit   uint64
	todaySpent   uint64
	lastResetDay int64
}

// lockAccount materializes the fund row if needed and takes its row lock for
// the remainder of the transaction.
func lockAccount(ctx context.Context, tx pgx.Tx, fund Address) (pgAccount, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO vault_accounts (fund) VALUES ($1)
		ON CONFLICT (fund) DO NOTHING`, fund.String()); err != nil {
		return pgAccount{}, err
	}

	var acct pgAccount
	var balance, daily, perTx, spent int64
	err := tx.QueryRow(ctx, `SELECT balance, daily_limit, per_tx_limit, today_spent, last_reset_day
		FROM vault_accounts WHERE fund = $1 FOR UPDATE`, fund.String()).
		Scan(&balance, &daily, &perTx, &spent, &acct.lastResetDay)
	if err != nil {
		return pgAccount{}, err
	}
	acct.balance = uint64(balance)
	acct.dailyLimit = uint64(daily)
	acct.perTxLimit = uint64(perTx)
	acct.todaySpent = uint64(spent)
	return acct, nil
}

func (p *Postgres) begin(ctx context.Context) (pgx.Tx, error) {
	return p.db.BeginTx(ctx, pgx.TxOptions{})
}

// Deposit credits the fund's accounting balance after the asset transfer
// into custody succeeds. The transfer runs inside the transaction window so
// a failure leaves no trace.
func (p *Postgres) Deposit(ctx context.Context, fund Address, amount uint64) (uint64, error) {
	if fund.IsZero() {
		return 0, ErrInvalidIdentity
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acct, err := lockAccount(ctx, tx, fund)
	if err != nil {
		return 0, err
	}

	if amount > math.MaxUint64-acct.balance {
		return 0, ErrInvalidAmount
	}
	if err := p.opts.Asset.Transfer(ctx, fund.String(), p.opts.Custody.String(), amount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	balance := acct.balance + amount
	if _, err := tx.Exec(ctx, `UPDATE vault_accounts SET balance = $2 WHERE fund = $1`,
		fund.String(), int64(balance)); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindDeposited,
		Fund:      fund.String(),
		Amount:    amount,
		Balance:   balance,
		Timestamp: p.opts.Clock.Now().Unix(),
	})
	return balance, nil
}

// Withdraw debits the accounting balance and pays out from custody. If the
// asset transfer fails the transaction rolls back and the debit never
// becomes visible.
func (p *Postgres) Withdraw(ctx context.Context, fund Address, amount uint64) (uint64, error) {
	if fund.IsZero() {
		return 0, ErrInvalidIdentity
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acct, err := lockAccount(ctx, tx, fund)
	if err != nil {
		return 0, err
	}
	if amount > acct.balance {
		return 0, ErrInsufficientBalance
	}

	balance := acct.balance - amount
	if _, err := tx.Exec(ctx, `UPDATE vault_accounts SET balance = $2 WHERE fund = $1`,
		fund.String(), int64(balance)); err != nil {
		return 0, err
	}
	if err := p.opts.Asset.Transfer(ctx, p.opts.Custody.String(), fund.String(), amount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindWithdrawn,
		Fund:      fund.String(),
		Amount:    amount,
		Balance:   balance,
		Timestamp: p.opts.Clock.Now().Unix(),
	})
	return balance, nil
}

// Authorize adds a bot to the fund's authorized set.
func (p *Postgres) Authorize(ctx context.Context, fund, bot Address) error {
	if fund.IsZero() || bot.IsZero() {
		return ErrInvalidIdentity
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := lockAccount(ctx, tx, fund); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `INSERT INTO vault_bots (fund, bot) VALUES ($1, $2)
		ON CONFLICT (fund, bot) DO NOTHING`, fund.String(), bot.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAuthorized
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindBotAuthorized,
		Fund:      fund.String(),
		Bot:       bot.String(),
		Timestamp: p.opts.Clock.Now().Unix(),
	})
	return nil
}

// Revoke removes a bot from the fund's authorized set.
func (p *Postgres) Revoke(ctx context.Context, fund, bot Address) error {
	if fund.IsZero() || bot.IsZero() {
		return ErrInvalidIdentity
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := lockAccount(ctx, tx, fund); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM vault_bots WHERE fund = $1 AND bot = $2`,
		fund.String(), bot.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAuthorized
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindBotRevoked,
		Fund:      fund.String(),
		Bot:       bot.String(),
		Timestamp: p.opts.Clock.Now().Unix(),
	})
	return nil
}

// SetLimits overwrites both caps unconditionally.
func (p *Postgres) SetLimits(ctx context.Context, fund Address, dailyLimit, perTxLimit uint64) error {
	if fund.IsZero() {
		return ErrInvalidIdentity
	}
	if dailyLimit != 0 && perTxLimit > dailyLimit {
		return ErrLimitOrdering
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := lockAccount(ctx, tx, fund); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE vault_accounts SET daily_limit = $2, per_tx_limit = $3
		WHERE fund = $1`, fund.String(), int64(dailyLimit), int64(perTxLimit)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:       events.KindLimitsUpdated,
		Fund:       fund.String(),
		DailyLimit: dailyLimit,
		PerTxLimit: perTxLimit,
		Timestamp:  p.opts.Clock.Now().Unix(),
	})
	return nil
}

// Execute runs the purchase pipeline inside one transaction. The fund row
// lock serializes same-fund calls; the purchase counter row lock inside the
// same transaction keeps ledger ids in commit order.
func (p *Postgres) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	if req.Fund.IsZero() || req.Recipient.IsZero() {
		return ExecuteResult{}, ErrInvalidIdentity
	}
	if req.Amount == 0 {
		return ExecuteResult{}, ErrInvalidAmount
	}

	tx, err := p.begin(ctx)
	if err != nil {
		return ExecuteResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acct, err := lockAccount(ctx, tx, req.Fund)
	if err != nil {
		return ExecuteResult{}, err
	}

	var authorized bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vault_bots WHERE fund = $1 AND bot = $2)`,
		req.Fund.String(), req.Bot.String()).Scan(&authorized); err != nil {
		return ExecuteResult{}, err
	}
	if !authorized {
		return ExecuteResult{}, ErrNotAuthorized
	}

	now := p.opts.Clock.Now()
	if day := dayIndex(now); day > acct.lastResetDay {
		acct.todaySpent = 0
		acct.lastResetDay = day
	}

	if acct.perTxLimit != 0 && req.Amount > acct.perTxLimit {
		return ExecuteResult{}, ErrExceedsPerTxLimit
	}
	// The spend counter must never wrap; a sum past the uint64 ceiling
	// exceeds any representable daily cap.
	if req.Amount > math.MaxUint64-acct.todaySpent {
		return ExecuteResult{}, ErrExceedsDailyLimit
	}
	if acct.dailyLimit != 0 && acct.todaySpent+req.Amount > acct.dailyLimit {
		return ExecuteResult{}, ErrExceedsDailyLimit
	}

	var feeBps int64
	var treasury string
	if err := tx.QueryRow(ctx, `SELECT fee_bps, treasury FROM vault_policy WHERE id = 1`).
		Scan(&feeBps, &treasury); err != nil {
		return ExecuteResult{}, err
	}

	fee := ComputeFee(req.Amount, uint64(feeBps))
	if fee > math.MaxUint64-req.Amount {
		return ExecuteResult{}, ErrInvalidAmount
	}
	total := req.Amount + fee
	if acct.balance < total {
		return ExecuteResult{}, ErrInsufficientBalance
	}

	balance := acct.balance - total
	if _, err := tx.Exec(ctx, `UPDATE vault_accounts
		SET balance = $2, today_spent = $3, last_reset_day = $4 WHERE fund = $1`,
		req.Fund.String(), int64(balance), int64(acct.todaySpent+req.Amount), acct.lastResetDay); err != nil {
		return ExecuteResult{}, err
	}

	custody := p.opts.Custody.String()
	if err := p.opts.Asset.Transfer(ctx, custody, req.Recipient.String(), req.Amount); err != nil {
		return ExecuteResult{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if fee > 0 {
		if err := p.opts.Asset.Transfer(ctx, custody, treasury, fee); err != nil {
			// Compensate the recipient leg before the rollback; best effort.
			_ = p.opts.Asset.Transfer(ctx, req.Recipient.String(), custody, req.Amount)
			return ExecuteResult{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	var id int64
	if err := tx.QueryRow(ctx, `SELECT value FROM vault_counters
		WHERE name = 'purchase_id' FOR UPDATE`).Scan(&id); err != nil {
		return ExecuteResult{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE vault_counters SET value = $1 WHERE name = 'purchase_id'`,
		id+1); err != nil {
		return ExecuteResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO vault_purchases (id, fund, bot, recipient, amount, fee, ts, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, req.Fund.String(), req.Bot.String(), req.Recipient.String(),
		int64(req.Amount), int64(fee), now.Unix(), req.Metadata); err != nil {
		return ExecuteResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ExecuteResult{}, err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:       events.KindPurchaseExecuted,
		Fund:       req.Fund.String(),
		Bot:        req.Bot.String(),
		Recipient:  req.Recipient.String(),
		Amount:     req.Amount,
		Fee:        fee,
		PurchaseID: uint64(id),
		Metadata:   req.Metadata,
		Timestamp:  now.Unix(),
	})
	return ExecuteResult{PurchaseID: uint64(id), Fee: fee, NewBalance: balance}, nil
}

// SetFeeRate updates the platform fee. Admin only.
func (p *Postgres) SetFeeRate(ctx context.Context, caller Address, bps uint64) error {
	if caller != p.opts.Admin {
		return ErrUnauthorized
	}
	if bps > MaxFeeBps {
		return ErrFeeTooHigh
	}

	if _, err := p.db.Exec(ctx, `UPDATE vault_policy SET fee_bps = $1 WHERE id = 1`, int64(bps)); err != nil {
		return err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindFeeUpdated,
		FeeBps:    bps,
		Timestamp: p.opts.Clock.Now().Unix(),
	})
	return nil
}

// SetTreasury updates the fee destination. Admin only.
func (p *Postgres) SetTreasury(ctx context.Context, caller, treasury Address) error {
	if caller != p.opts.Admin {
		return ErrUnauthorized
	}
	if treasury.IsZero() {
		return ErrInvalidIdentity
	}

	if _, err := p.db.Exec(ctx, `UPDATE vault_policy SET treasury = $1 WHERE id = 1`, treasury.String()); err != nil {
		return err
	}

	p.opts.Sink.Emit(ctx, events.Event{
		Kind:      events.KindTreasuryUpdated,
		Treasury:  treasury.String(),
		Timestamp: p.opts.Clock.Now().Unix(),
	})
	return nil
}

// GetAccount returns a snapshot of the fund's state. Unknown funds read as
// the zero account.
func (p *Postgres) GetAccount(ctx context.Context, fund Address) (Account, error) {
	if fund.IsZero() {
		return Account{}, ErrInvalidIdentity
	}

	out := Account{Fund: fund, Bots: []Address{}}
	var balance, daily, perTx, spent int64
	err := p.db.QueryRow(ctx, `SELECT balance, daily_limit, per_tx_limit, today_spent, last_reset_day
		FROM vault_accounts WHERE fund = $1`, fund.String()).
		Scan(&balance, &daily, &perTx, &spent, &out.LastResetDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return Account{}, err
	}
	out.Balance = uint64(balance)
	out.DailyLimit = uint64(daily)
	out.PerTxLimit = uint64(perTx)
	out.TodaySpent = uint64(spent)

	rows, err := p.db.Query(ctx, `SELECT bot FROM vault_bots WHERE fund = $1 ORDER BY bot`, fund.String())
	if err != nil {
		return Account{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var bot string
		if err := rows.Scan(&bot); err != nil {
			return Account{}, err
		}
		out.Bots = append(out.Bots, Address(bot))
	}
	return out, rows.Err()
}

// IsAuthorized reports whether the bot may debit the fund.
func (p *Postgres) IsAuthorized(ctx context.Context, fund, bot Address) (bool, error) {
	if fund.IsZero() {
		return false, ErrInvalidIdentity
	}

	var authorized bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vault_bots WHERE fund = $1 AND bot = $2)`,
		fund.String(), bot.String()).Scan(&authorized)
	return authorized, err
}

// GetPurchase returns the immutable record at the given ledger position.
func (p *Postgres) GetPurchase(ctx context.Context, id uint64) (Purchase, error) {
	var out Purchase
	var amount, fee int64
	var fund, bot, recipient string
	err := p.db.QueryRow(ctx, `SELECT id, fund, bot, recipient, amount, fee, ts, metadata
		FROM vault_purchases WHERE id = $1`, int64(id)).
		Scan(&out.ID, &fund, &bot, &recipient, &amount, &fee, &out.Timestamp, &out.Metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, ErrInvalidPurchaseID
	}
	if err != nil {
		return Purchase{}, err
	}
	out.Fund = Address(fund)
	out.Bot = Address(bot)
	out.Recipient = Address(recipient)
	out.Amount = uint64(amount)
	out.Fee = uint64(fee)
	return out, nil
}

// ListByFund returns the fund's purchase ids in insertion order.
func (p *Postgres) ListByFund(ctx context.Context, fund Address) ([]uint64, error) {
	if fund.IsZero() {
		return nil, ErrInvalidIdentity
	}

	rows, err := p.db.Query(ctx, `SELECT id FROM vault_purchases WHERE fund = $1 ORDER BY id`, fund.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// Count returns the total number of purchases ever appended.
func (p *Postgres) Count(ctx context.Context) (uint64, error) {
	var count int64
	err := p.db.QueryRow(ctx, `SELECT value FROM vault_counters WHERE name = 'purchase_id'`).Scan(&count)
	return uint64(count), err
}

// Stats summarizes platform state.
func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var feeBps int64
	var treasury string
	if err := p.db.QueryRow(ctx, `SELECT fee_bps, treasury FROM vault_policy WHERE id = 1`).
		Scan(&feeBps, &treasury); err != nil {
		return Stats{}, err
	}
	stats.FeeBps = uint64(feeBps)
	stats.Treasury = Address(treasury)

	var funds, total int64
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM vault_accounts`).
		Scan(&funds, &total); err != nil {
		return Stats{}, err
	}
	stats.Funds = uint64(funds)
	stats.TotalBalance = uint64(total)

	count, err := p.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Purchases = count
	return stats, nil
}

var _ Vault = (*Postgres)(nil)
