package repository

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaPredictionPublisher emits finished predictions to a Kafka topic, keyed
// by symbol so per-symbol ordering survives partitioning.
type KafkaPredictionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPredictionPublisher creates the publisher.
func NewKafkaPredictionPublisher(producer *pkgkafka.Producer, topic string) repository.PredictionPublisher {
	return &KafkaPredictionPublisher{producer: producer, topic: topic}
}

// Publish sends one prediction event.
func (p *KafkaPredictionPublisher) Publish(ctx context.Context, r *models.PredictionResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r)
}

// Close flushes and closes the producer.
func (p *KafkaPredictionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
