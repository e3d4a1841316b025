// Package commitlog is the append-only record of entity mutations. Every
// successful save transaction appends exactly one manifest, timestamped at the
// commit instant the log's clock assigned. Manifests are never updated or
// deleted; revision indexes hold weak references into this log and the log is
// the source of truth for the raw audit trail.
package commitlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ref is an opaque, comparable reference to a commit-log manifest. Two refs
// are equal iff they identify the same manifest; the contents behind a ref
// are immutable.
type Ref struct {
	id uuid.UUID
}

// NewRef mints a fresh manifest reference.
func NewRef() Ref {
	return Ref{id: uuid.New()}
}

// RefFromUUID reconstitutes a reference from its persisted form.
func RefFromUUID(id uuid.UUID) Ref {
	return Ref{id: id}
}

// UUID exposes the persisted form of the reference. Only storage layers
// should need this.
func (r Ref) UUID() uuid.UUID { return r.id }

// IsZero reports whether r references nothing.
func (r Ref) IsZero() bool { return r.id == uuid.Nil }

func (r Ref) String() string { return r.id.String() }

// Manifest is one committed transaction's record: which entity changed, when
// the transaction committed, and the serialized post-mutation state.
type Manifest struct {
	Ref        Ref
	EntityKey  string
	CommitTime time.Time
	Payload    []byte
}

// Log appends and resolves manifests. Append participates in the ambient
// transaction of the caller: the manifest becomes durable iff the surrounding
// entity write commits. The returned manifest carries the commit instant the
// log assigned, which equals the transaction clock's reading.
type Log interface {
	Append(ctx context.Context, entityKey string, payload []byte) (Manifest, error)
	Resolve(ctx context.Context, ref Ref) (Manifest, error)
}
