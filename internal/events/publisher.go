package events

import (
	"context"

	"DivPulse/pkg/kafka"
)

// KafkaPublisher adapts the Kafka producer to the domain Publisher
// interface, pinning all events to one topic keyed by dataset so consumers
// see per-dataset ordering.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload any) error {
	return p.producer.Publish(ctx, p.topic, []byte(key), payload)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// DivergenceAlert announces a dataset whose latest divergence score crossed
// the alert threshold.
type DivergenceAlert struct {
	Type      string  `json:"type"`
	Dataset   string  `json:"dataset"`
	Against   string  `json:"against"`
	Variant   string  `json:"variant"`
	Score     float64 `json:"score"`
	Timestamp int64   `json:"timestamp"`
}
