// Package postgres wires the relational backend: connection pool, schema
// bootstrap for the tables this core owns, and the transaction manager that
// makes entity writes, commit-log appends, and index updates one atomic unit.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"annal/pkg/clock"
	txcontext "annal/pkg/platform/tx"
)

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables the persistence core owns. The revision index is
// persisted as two parallel array columns; loaders tolerate either being NULL.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS commit_manifests (
		id          uuid PRIMARY KEY,
		entity_key  text        NOT NULL,
		commit_time timestamptz NOT NULL,
		payload     bytea       NOT NULL,
		published   boolean     NOT NULL DEFAULT false
	);
	CREATE INDEX IF NOT EXISTS commit_manifests_unpublished
		ON commit_manifests (commit_time) WHERE NOT published;

	CREATE TABLE IF NOT EXISTS domains (
		name           text PRIMARY KEY,
		tld            text        NOT NULL,
		registrar_id   text        NOT NULL,
		registrant     text        NOT NULL DEFAULT '',
		nameservers    text[]      NOT NULL DEFAULT '{}',
		auth_info_hash text        NOT NULL DEFAULT '',
		period_years   int         NOT NULL DEFAULT 1,
		created_at     timestamptz NOT NULL,
		updated_at     timestamptz NOT NULL,
		revision_times timestamptz[],
		revision_refs  uuid[]
	);
	`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// TxManager runs functions inside a database transaction, pinning the commit
// instant and placing the transaction in context for the stores to join.
// Constructed per caller; tests build their own instead of mutating a shared
// global.
type TxManager struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewTxManager(pool *pgxpool.Pool, clk clock.Clock) *TxManager {
	return &TxManager{pool: pool, clock: clk}
}

func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	ctx = txcontext.WithTx(ctx, tx)
	ctx = txcontext.WithCommitTime(ctx, m.clock.Now())
	if err := fn(ctx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
