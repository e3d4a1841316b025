// Package manifestcache fronts commit-log resolution with Redis. Manifests
// are immutable once committed, so cached copies never go stale; the TTL only
// bounds memory. Point-in-time reads hit the same few manifests repeatedly,
// which is what the revision index accelerates and this cache makes cheap.
package manifestcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"annal/internal/commitlog"
)

type cachedManifest struct {
	ID         uuid.UUID `json:"id"`
	EntityKey  string    `json:"entity_key"`
	CommitTime time.Time `json:"commit_time"`
	Payload    []byte    `json:"payload"`
}

// CachingLog decorates a commitlog.Log with read-through caching of Resolve.
// Append passes through untouched; caching a write that might still roll back
// would poison the cache.
type CachingLog struct {
	inner  commitlog.Log
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(inner commitlog.Log, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachingLog {
	return &CachingLog{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachingLog) Append(ctx context.Context, entityKey string, payload []byte) (commitlog.Manifest, error) {
	return c.inner.Append(ctx, entityKey, payload)
}

func (c *CachingLog) Resolve(ctx context.Context, ref commitlog.Ref) (commitlog.Manifest, error) {
	key := cacheKey(ref)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached cachedManifest
		if err := json.Unmarshal(raw, &cached); err == nil {
			return commitlog.Manifest{
				Ref:        commitlog.RefFromUUID(cached.ID),
				EntityKey:  cached.EntityKey,
				CommitTime: cached.CommitTime,
				Payload:    cached.Payload,
			}, nil
		}
		// Damaged cache entry; fall through to the log.
	} else if !errors.Is(err, redis.Nil) && c.logger != nil {
		c.logger.WarnContext(ctx, "manifest cache read failed", "ref", ref, "error", err)
	}

	m, err := c.inner.Resolve(ctx, ref)
	if err != nil {
		return commitlog.Manifest{}, err
	}

	raw, err := json.Marshal(cachedManifest{
		ID:         m.Ref.UUID(),
		EntityKey:  m.EntityKey,
		CommitTime: m.CommitTime,
		Payload:    m.Payload,
	})
	if err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil && c.logger != nil {
			c.logger.WarnContext(ctx, "manifest cache write failed", "ref", ref, "error", err)
		}
	}
	return m, nil
}

func cacheKey(ref commitlog.Ref) string {
	return fmt.Sprintf("annal:manifest:%s", ref)
}
