package repository

import (
	"context"

	"catalytics/internal/domain/models"
	domrepo "catalytics/internal/domain/repository"
	pkgkafka "catalytics/pkg/kafka"

	"github.com/google/uuid"
)

// KafkaSnapshotPublisher implements SnapshotPublisher for Kafka. Batches are
// keyed by category so one category stays on one partition.
type KafkaSnapshotPublisher struct {
	producer  *pkgkafka.Producer
	topic     string
	chunkSize int
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string, chunkSize int) *KafkaSnapshotPublisher {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &KafkaSnapshotPublisher{producer: producer, topic: topic, chunkSize: chunkSize}
}

func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, snapshots []models.Snapshot, assets []models.Asset) error {
	msgs := BuildSnapshotMessages(snapshots, assets, p.chunkSize)
	if len(msgs) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// BuildSnapshotMessages groups snapshots by category and splits each group
// into chunks. Asset metadata rides on the first chunk of its category.
func BuildSnapshotMessages(snapshots []models.Snapshot, assets []models.Asset, chunkSize int) []pkgkafka.Message {
	if chunkSize <= 0 {
		chunkSize = len(snapshots) + 1
	}
	var order []models.Category
	byCat := make(map[models.Category][]models.Snapshot)
	for _, s := range snapshots {
		if _, ok := byCat[s.Category]; !ok {
			order = append(order, s.Category)
		}
		byCat[s.Category] = append(byCat[s.Category], s)
	}
	assetsByCat := make(map[models.Category][]models.Asset)
	for _, a := range assets {
		if _, ok := byCat[a.Category]; !ok {
			order = append(order, a.Category)
			byCat[a.Category] = nil
		}
		assetsByCat[a.Category] = append(assetsByCat[a.Category], a)
	}

	var msgs []pkgkafka.Message
	for _, cat := range order {
		group := byCat[cat]
		first := true
		for start := 0; start < len(group) || first; start += chunkSize {
			end := start + chunkSize
			if end > len(group) {
				end = len(group)
			}
			batch := models.SnapshotBatch{
				BatchID:   uuid.NewString(),
				Category:  cat,
				Snapshots: group[start:end],
			}
			if first {
				batch.Assets = assetsByCat[cat]
				first = false
			}
			msgs = append(msgs, pkgkafka.Message{
				Key:     []byte(cat),
				Value:   batch,
				Headers: map[string]string{"batch_id": batch.BatchID},
			})
		}
	}
	return msgs
}
