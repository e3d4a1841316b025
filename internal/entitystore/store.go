// Package entitystore is the generic save/load facility for versioned
// entities. Every save runs the revision hook inside one atomic transaction:
// snapshot the entity, append a commit-log manifest, compact the snapshot's
// revision index, and persist the snapshot. The caller's in-memory object is
// never touched; only a reloaded copy reflects the updated index.
package entitystore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"annal/internal/commitlog"
	"annal/internal/entitystore/metrics"
	"annal/internal/revision"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
)

// Entity is the capability a type needs to participate in revision tracking.
// E is the concrete (pointer) entity type; Snapshot must return a structural
// copy deep enough that mutating the copy never shows through the original.
type Entity[E any] interface {
	EntityKey() string
	Snapshot() E
	RevisionIndex() revision.Index
	SetRevisionIndex(revision.Index)
}

// Timestamped entities get bookkeeping times stamped at the commit instant.
// CreatedAt-style fields auto-initialize on first save (zero value in, commit
// time out) so callers never fill them by hand.
type Timestamped interface {
	TouchTimestamps(now time.Time)
}

// Backend persists entity snapshots. Put must write through the transaction
// in context so the snapshot commits atomically with its manifest. Get
// returns sentinel.ErrNotFound (wrapped) for keys that were never saved, and
// must materialize an empty revision index for rows whose index columns are
// absent or damaged.
type Backend[E any] interface {
	Put(ctx context.Context, e E) error
	Get(ctx context.Context, key string) (E, error)
}

// TxManager runs a function as one atomic unit of work and pins the commit
// instant in context. Implementations serialize concurrent saves of the same
// entity; the compactor relies on commit instants being non-decreasing per
// entity.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store ties the pieces together for one entity type.
type Store[E Entity[E]] struct {
	tm      TxManager
	backend Backend[E]
	log     commitlog.Log
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Store.
type Option[E Entity[E]] func(*Store[E])

// WithLogger sets a logger for save diagnostics.
func WithLogger[E Entity[E]](logger *slog.Logger) Option[E] {
	return func(s *Store[E]) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics[E Entity[E]](m *metrics.Metrics) Option[E] {
	return func(s *Store[E]) { s.metrics = m }
}

// New constructs a Store. All collaborators are injected; there is no global
// transaction-manager state to swap in tests.
func New[E Entity[E]](tm TxManager, backend Backend[E], log commitlog.Log, opts ...Option[E]) *Store[E] {
	s := &Store[E]{
		tm:      tm,
		backend: backend,
		log:     log,
		tracer:  otel.Tracer("annal/entitystore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists e with its revision index advanced by one commit. The entity
// write, the commit-log manifest, and the index update are durable together
// or not at all. e itself is left unmodified.
func (s *Store[E]) Save(ctx context.Context, e E) error {
	ctx, span := s.tracer.Start(ctx, "entitystore.Save",
		trace.WithAttributes(attribute.String("entity.key", e.EntityKey())))
	defer span.End()

	err := s.tm.RunInTx(ctx, func(ctx context.Context) error {
		snap := e.Snapshot()

		now, ok := txcontext.CommitTime(ctx)
		if !ok {
			return fmt.Errorf("save %s: transaction manager did not pin a commit time", snap.EntityKey())
		}
		if ts, hasTimestamps := any(snap).(Timestamped); hasTimestamps {
			ts.TouchTimestamps(now)
		}

		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode %s for commit log: %w", snap.EntityKey(), err)
		}
		manifest, err := s.log.Append(ctx, snap.EntityKey(), payload)
		if err != nil {
			return fmt.Errorf("append manifest for %s: %w", snap.EntityKey(), err)
		}

		before := snap.RevisionIndex()
		compacted := revision.Compact(before, manifest.Ref, manifest.CommitTime)
		snap.SetRevisionIndex(compacted)
		s.metrics.RecordCompaction(before.Len(), compacted.Len())

		return s.backend.Put(ctx, snap)
	})
	if err != nil {
		s.metrics.RecordSave("error")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "entity save failed",
				"entity_key", e.EntityKey(), "error", err)
		}
		return err
	}
	s.metrics.RecordSave("ok")
	return nil
}

// Find loads the entity stored under key. Absence is sentinel.ErrNotFound; a
// row persisted without readable index columns loads with an empty index.
func (s *Store[E]) Find(ctx context.Context, key string) (E, error) {
	return s.backend.Get(ctx, key)
}

// FindAt reconstructs the state that was current at instant t by following
// the revision index into the commit log: the newest entry at or before t,
// falling back to the boundary anchor for instants older than the retention
// window. sentinel.ErrNotFound means the index holds no entry that old.
func (s *Store[E]) FindAt(ctx context.Context, key string, t time.Time) (commitlog.Manifest, error) {
	e, err := s.backend.Get(ctx, key)
	if err != nil {
		return commitlog.Manifest{}, err
	}
	entry, ok := e.RevisionIndex().AsOf(t)
	if !ok {
		return commitlog.Manifest{}, fmt.Errorf("no revision of %s at or before %s: %w",
			key, t.Format(time.RFC3339), sentinel.ErrNotFound)
	}
	return s.log.Resolve(ctx, entry.Ref)
}
