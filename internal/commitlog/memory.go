package commitlog

import (
	"context"
	"fmt"
	"sync"

	"annal/pkg/clock"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
)

// MemoryLog keeps manifests in process memory. It backs unit tests and the
// zero-config development mode; durability comes from the Postgres log.
type MemoryLog struct {
	mu        sync.RWMutex
	clock     clock.Clock
	manifests map[Ref]Manifest
	order     []Ref
	published map[Ref]bool
}

func NewMemoryLog(clk clock.Clock) *MemoryLog {
	return &MemoryLog{
		clock:     clk,
		manifests: make(map[Ref]Manifest),
		published: make(map[Ref]bool),
	}
}

func (l *MemoryLog) Append(ctx context.Context, entityKey string, payload []byte) (Manifest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	commitTime, ok := txcontext.CommitTime(ctx)
	if !ok {
		commitTime = l.clock.Now()
	}
	m := Manifest{
		Ref:        NewRef(),
		EntityKey:  entityKey,
		CommitTime: commitTime,
		Payload:    append([]byte(nil), payload...),
	}
	l.manifests[m.Ref] = m
	l.order = append(l.order, m.Ref)
	return m, nil
}

func (l *MemoryLog) Resolve(_ context.Context, ref Ref) (Manifest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.manifests[ref]
	if !ok {
		return Manifest{}, fmt.Errorf("resolve manifest %s: %w", ref, sentinel.ErrNotFound)
	}
	return m, nil
}

// Unpublished returns up to limit manifests not yet handed to the commit
// feed, in commit order.
func (l *MemoryLog) Unpublished(_ context.Context, limit int) ([]Manifest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Manifest
	for _, ref := range l.order {
		if l.published[ref] {
			continue
		}
		out = append(out, l.manifests[ref])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished flags manifests as delivered to the commit feed.
func (l *MemoryLog) MarkPublished(_ context.Context, refs []Ref) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ref := range refs {
		l.published[ref] = true
	}
	return nil
}
