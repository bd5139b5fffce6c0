package repository

import (
	"context"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	pkgkafka "PriceWindow/pkg/kafka"
)

// KafkaSnapshotSink publishes snapshots as JSON keyed by window label.
type KafkaSnapshotSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSnapshotSink(producer *pkgkafka.Producer, topic string) *KafkaSnapshotSink {
	return &KafkaSnapshotSink{producer: producer, topic: topic}
}

func (k *KafkaSnapshotSink) Publish(ctx context.Context, s *models.Snapshot) error {
	return k.producer.Publish(ctx, k.topic, []byte(s.Window.Label), s)
}

func (k *KafkaSnapshotSink) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}

var _ drepo.SnapshotSink = (*KafkaSnapshotSink)(nil)
