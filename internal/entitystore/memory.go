package entitystore

import (
	"context"
	"fmt"
	"sync"

	"annal/pkg/clock"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
)

// MemoryBackend keeps entity snapshots in a map. It snapshots on both Put and
// Get so no caller ever shares a mutable instance with the store.
type MemoryBackend[E Entity[E]] struct {
	mu       sync.RWMutex
	entities map[string]E
}

func NewMemoryBackend[E Entity[E]]() *MemoryBackend[E] {
	return &MemoryBackend[E]{entities: make(map[string]E)}
}

func (b *MemoryBackend[E]) Put(_ context.Context, e E) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entities[e.EntityKey()] = e.Snapshot()
	return nil
}

func (b *MemoryBackend[E]) Get(_ context.Context, key string) (E, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entities[key]
	if !ok {
		var zero E
		return zero, fmt.Errorf("entity %q: %w", key, sentinel.ErrNotFound)
	}
	return e.Snapshot(), nil
}

// MemoryTxManager serializes saves behind one coarse lock, which is enough to
// guarantee the per-entity ordering the compactor assumes. The database
// transaction manager replaces it outside tests and dev mode.
type MemoryTxManager struct {
	mu    sync.Mutex
	clock clock.Clock
}

func NewMemoryTxManager(clk clock.Clock) *MemoryTxManager {
	return &MemoryTxManager{clock: clk}
}

func (m *MemoryTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(txcontext.WithCommitTime(ctx, m.clock.Now()))
}
