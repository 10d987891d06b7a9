package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when no agent matches the lookup.
	ErrNotFound = errors.New("agent not found")

	// ErrDuplicateWallet occurs when a create reuses an existing wallet.
	ErrDuplicateWallet = errors.New("wallet already registered")

	// ErrInvalidName occurs when a create omits the agent name.
	ErrInvalidName = errors.New("agent name is required")
)

// Repository persists the agent catalog.
type Repository interface {
	Create(ctx context.Context, agent Agent) (Agent, error)
	GetByID(ctx context.Context, id int64) (Agent, error)
	GetByWallet(ctx context.Context, wallet string) (Agent, error)
	List(ctx context.Context, filter ListFilter) ([]Agent, error)
	Update(ctx context.Context, id int64, update Update) (Agent, error)
	Delete(ctx context.Context, id int64) error
}

// PostgresRepository stores agents in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the agents table. Safe to run repeatedly.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS agents (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		wallet      TEXT NOT NULL UNIQUE,
		price       BIGINT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url   TEXT NOT NULL DEFAULT '',
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate agents schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, agent Agent) (Agent, error) {
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	err := r.db.QueryRow(ctx, `INSERT INTO agents (name, wallet, price, description, image_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		agent.Name, agent.Wallet, int64(agent.Price), agent.Description, agent.ImageURL,
		agent.Active, agent.CreatedAt, agent.UpdatedAt).Scan(&agent.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Agent{}, ErrDuplicateWallet
		}
		return Agent{}, err
	}
	return agent, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (Agent, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, name, wallet, price, description, image_url, is_active, created_at, updated_at
		FROM agents WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByWallet(ctx context.Context, wallet string) (Agent, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, name, wallet, price, description, image_url, is_active, created_at, updated_at
		FROM agents WHERE wallet = $1`, wallet))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Agent, error) {
	var a Agent
	var price int64
	err := row.Scan(&a.ID, &a.Name, &a.Wallet, &price, &a.Description, &a.ImageURL, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, err
	}
	a.Price = uint64(price)
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Agent, error) {
	query := `SELECT id, name, wallet, price, description, image_url, is_active, created_at, updated_at FROM agents`
	args := []any{}
	if filter.ActiveOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Agent, 0)
	for rows.Next() {
		var a Agent
		var price int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Wallet, &price, &a.Description, &a.ImageURL, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Price = uint64(price)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, update Update) (Agent, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	applyUpdate(&current, update)
	current.UpdatedAt = time.Now().UTC()

	_, err = r.db.Exec(ctx, `UPDATE agents SET name = $2, price = $3, description = $4, image_url = $5, is_active = $6, updated_at = $7
		WHERE id = $1`, id, current.Name, int64(current.Price), current.Description, current.ImageURL, current.Active, current.UpdatedAt)
	if err != nil {
		return Agent{}, err
	}
	return current, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func applyUpdate(a *Agent, update Update) {
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.Price != nil {
		a.Price = *update.Price
	}
	if update.Description != nil {
		a.Description = *update.Description
	}
	if update.ImageURL != nil {
		a.ImageURL = *update.ImageURL
	}
	if update.Active != nil {
		a.Active = *update.Active
	}
}
