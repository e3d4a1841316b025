package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"annal/internal/commitlog"
	"annal/internal/revision"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend persists Domain snapshots in the domains table. The
// revision index flattens to the revision_times/revision_refs parallel array
// columns; rows from before the migration carry NULLs there and load with an
// empty index.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return b.pool
}

func (b *PostgresBackend) Put(ctx context.Context, d *Domain) error {
	times, refs := d.Revisions.Columns()
	var refIDs []uuid.UUID
	if refs != nil {
		refIDs = make([]uuid.UUID, len(refs))
		for i, ref := range refs {
			refIDs[i] = ref.UUID()
		}
	}
	_, err := b.querier(ctx).Exec(ctx, `
		INSERT INTO domains (
			name, tld, registrar_id, registrant, nameservers,
			auth_info_hash, period_years, created_at, updated_at,
			revision_times, revision_refs
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name) DO UPDATE SET
			registrar_id   = EXCLUDED.registrar_id,
			registrant     = EXCLUDED.registrant,
			nameservers    = EXCLUDED.nameservers,
			auth_info_hash = EXCLUDED.auth_info_hash,
			period_years   = EXCLUDED.period_years,
			updated_at     = EXCLUDED.updated_at,
			revision_times = EXCLUDED.revision_times,
			revision_refs  = EXCLUDED.revision_refs
	`, d.Name, d.TLD, d.RegistrarID, d.Registrant, d.Nameservers,
		d.AuthInfoHash, d.PeriodYears, d.CreatedAt, d.UpdatedAt,
		times, refIDs)
	if err != nil {
		return fmt.Errorf("put domain %s: %w", d.Name, err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) (*Domain, error) {
	var (
		d      Domain
		times  []time.Time
		refIDs []uuid.UUID
	)
	err := b.querier(ctx).QueryRow(ctx, `
		SELECT name, tld, registrar_id, registrant, nameservers,
		       auth_info_hash, period_years, created_at, updated_at,
		       revision_times, revision_refs
		FROM domains
		WHERE name = $1
	`, key).Scan(&d.Name, &d.TLD, &d.RegistrarID, &d.Registrant, &d.Nameservers,
		&d.AuthInfoHash, &d.PeriodYears, &d.CreatedAt, &d.UpdatedAt,
		&times, &refIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("domain %q: %w", key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get domain %s: %w", key, err)
	}

	refs := make([]commitlog.Ref, len(refIDs))
	for i, id := range refIDs {
		refs[i] = commitlog.RefFromUUID(id)
	}
	d.Revisions = revision.FromColumns(times, refs)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}
