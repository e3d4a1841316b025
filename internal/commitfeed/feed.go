// Package commitfeed streams committed manifests to Kafka so downstream
// systems (replication, offline audit) can follow the raw mutation trail
// without touching the registry database. Delivery follows the outbox
// pattern: manifests are committed with published=false and a worker drains
// them in commit order, so a manifest is never visible on the feed before its
// transaction is durable.
package commitfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"annal/internal/commitlog"
)

// Source is the commit log's outbox view. Both log implementations provide it.
type Source interface {
	Unpublished(ctx context.Context, limit int) ([]commitlog.Manifest, error)
	MarkPublished(ctx context.Context, refs []commitlog.Ref) error
}

// Producer delivers one batch of feed records. Implementations must not
// report success until every record is acknowledged.
type Producer interface {
	Produce(ctx context.Context, records []Record) error
}

// Record is the wire form of one manifest on the feed. Key by entity so
// per-entity ordering survives partitioning.
type Record struct {
	ManifestID string          `json:"manifest_id"`
	EntityKey  string          `json:"entity_key"`
	CommitTime time.Time       `json:"commit_time"`
	Payload    json.RawMessage `json:"payload"`
}

// Worker polls the source and publishes pending manifests.
type Worker struct {
	source   Source
	producer Producer
	logger   *slog.Logger

	interval  time.Duration
	batchSize int
}

func NewWorker(source Source, producer Producer, logger *slog.Logger) *Worker {
	return &Worker{
		source:    source,
		producer:  producer,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run drains the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				// Publishing retries on the next tick; the outbox flag
				// guarantees nothing is lost in between.
				if w.logger != nil {
					w.logger.WarnContext(ctx, "commit feed drain failed", "error", err)
				}
			}
		}
	}
}

// DrainOnce publishes at most one batch of pending manifests.
func (w *Worker) DrainOnce(ctx context.Context) error {
	manifests, err := w.source.Unpublished(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("read outbox: %w", err)
	}
	if len(manifests) == 0 {
		return nil
	}

	records := make([]Record, len(manifests))
	refs := make([]commitlog.Ref, len(manifests))
	for i, m := range manifests {
		records[i] = Record{
			ManifestID: m.Ref.String(),
			EntityKey:  m.EntityKey,
			CommitTime: m.CommitTime,
			Payload:    json.RawMessage(m.Payload),
		}
		refs[i] = m.Ref
	}

	if err := w.producer.Produce(ctx, records); err != nil {
		return fmt.Errorf("produce feed batch: %w", err)
	}
	if err := w.source.MarkPublished(ctx, refs); err != nil {
		// Worst case the batch is re-published; consumers dedupe on
		// manifest_id.
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
