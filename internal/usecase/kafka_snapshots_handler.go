package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	domrepo "catalytics/internal/domain/repository"
	pkgkafka "catalytics/pkg/kafka"
)

// KafkaSnapshotsHandler consumes snapshot batches and writes them to storage.
type KafkaSnapshotsHandler struct {
	topic   string
	storage domrepo.SnapshotStore
	metrics domrepo.Metrics
}

func NewKafkaSnapshotsHandler(topic string, storage domrepo.SnapshotStore, metrics domrepo.Metrics) *KafkaSnapshotsHandler {
	return &KafkaSnapshotsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

// incoming message schema: models.SnapshotBatch
func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var batch models.SnapshotBatch
	if err := json.Unmarshal(b, &batch); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode snapshot batch: %w", err)
	}
	if len(batch.Snapshots) == 0 && len(batch.Assets) == 0 {
		return nil
	}

	start := time.Now()
	if err := h.storage.StoreBatch(ctx, batch.Snapshots); err != nil {
		h.metrics.RecordError("consumer_store")
		return fmt.Errorf("store batch %s: %w", batch.BatchID, err)
	}
	if len(batch.Assets) > 0 {
		if err := h.storage.UpsertAssets(ctx, batch.Assets); err != nil {
			h.metrics.RecordError("consumer_assets")
			return fmt.Errorf("upsert assets %s: %w", batch.BatchID, err)
		}
	}
	h.metrics.RecordLatency("store_batch_seconds", time.Since(start).Seconds())
	h.metrics.RecordSnapshotsIngested(string(batch.Category), len(batch.Snapshots))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)
