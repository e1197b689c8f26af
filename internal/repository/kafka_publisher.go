package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

// KafkaSignalPublisher emits generated signals to a Kafka topic, keyed
// by symbol so per-instrument ordering is preserved.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates the Kafka event publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), map[string]interface{}{
		"id":              sig.ID,
		"ts":              sig.Timestamp.Unix(),
		"symbol":          sig.Symbol,
		"action":          sig.Action,
		"price":           sig.Price,
		"confidence":      sig.Confidence,
		"technical_score": sig.TechnicalScore,
		"risk_level":      sig.RiskLevel,
	})
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
