// Package tx propagates the ambient database transaction through context so
// the commit log and entity backends join the same atomic unit of work as the
// save that triggered them.
package tx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type ctxKey struct{}

type commitTimeKey struct{}

var (
	txKey   = ctxKey{}
	timeKey = commitTimeKey{}
)

// WithTx stores a pgx transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a pgx transaction from context if present.
func From(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}

// WithCommitTime pins the transaction's commit instant in context. Transaction
// managers set it once at begin; the commit log and save hook read it so the
// manifest timestamp, the revision-index key, and entity bookkeeping times all
// agree exactly.
func WithCommitTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey, t.UTC())
}

// CommitTime returns the pinned commit instant, if a transaction manager set one.
func CommitTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(timeKey).(time.Time)
	return t, ok
}
