package commitlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"annal/pkg/clock"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so appends join the
// ambient transaction when one is in context.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLog persists manifests in the commit_manifests table. Append writes
// through the transaction found in context, so the manifest commits or rolls
// back together with the entity write that produced it.
type PostgresLog struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewPostgresLog(pool *pgxpool.Pool, clk clock.Clock) *PostgresLog {
	return &PostgresLog{pool: pool, clock: clk}
}

func (l *PostgresLog) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return l.pool
}

func (l *PostgresLog) Append(ctx context.Context, entityKey string, payload []byte) (Manifest, error) {
	commitTime, ok := txcontext.CommitTime(ctx)
	if !ok {
		commitTime = l.clock.Now()
	}
	m := Manifest{
		Ref:        NewRef(),
		EntityKey:  entityKey,
		CommitTime: commitTime,
		Payload:    payload,
	}
	_, err := l.querier(ctx).Exec(ctx, `
		INSERT INTO commit_manifests (id, entity_key, commit_time, payload, published)
		VALUES ($1, $2, $3, $4, false)
	`, m.Ref.UUID(), m.EntityKey, m.CommitTime, m.Payload)
	if err != nil {
		return Manifest{}, fmt.Errorf("append manifest: %w", err)
	}
	return m, nil
}

func (l *PostgresLog) Resolve(ctx context.Context, ref Ref) (Manifest, error) {
	var (
		id uuid.UUID
		m  Manifest
	)
	err := l.querier(ctx).QueryRow(ctx, `
		SELECT id, entity_key, commit_time, payload
		FROM commit_manifests
		WHERE id = $1
	`, ref.UUID()).Scan(&id, &m.EntityKey, &m.CommitTime, &m.Payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Manifest{}, fmt.Errorf("resolve manifest %s: %w", ref, sentinel.ErrNotFound)
		}
		return Manifest{}, fmt.Errorf("resolve manifest: %w", err)
	}
	m.Ref = RefFromUUID(id)
	m.CommitTime = m.CommitTime.UTC()
	return m, nil
}

// Unpublished returns up to limit manifests not yet streamed to the commit
// feed, oldest first.
func (l *PostgresLog) Unpublished(ctx context.Context, limit int) ([]Manifest, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, entity_key, commit_time, payload
		FROM commit_manifests
		WHERE NOT published
		ORDER BY commit_time, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished manifests: %w", err)
	}
	defer rows.Close()

	var out []Manifest
	for rows.Next() {
		var (
			id uuid.UUID
			m  Manifest
		)
		if err := rows.Scan(&id, &m.EntityKey, &m.CommitTime, &m.Payload); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		m.Ref = RefFromUUID(id)
		m.CommitTime = m.CommitTime.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifests: %w", err)
	}
	return out, nil
}

// MarkPublished flags manifests as delivered to the commit feed.
func (l *PostgresLog) MarkPublished(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(refs))
	for i, ref := range refs {
		ids[i] = ref.UUID()
	}
	_, err := l.pool.Exec(ctx, `
		UPDATE commit_manifests SET published = true WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("mark manifests published: %w", err)
	}
	return nil
}
