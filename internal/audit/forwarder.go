package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"casestatus/internal/platform/kafka/producer"
)

// Forwarder hands persisted events to an external stream.
type Forwarder interface {
	Forward(ctx context.Context, event Event) error
}

// MessageProducer is satisfied by *producer.Producer.
type MessageProducer interface {
	ProduceAsync(msg *producer.Message) error
}

// KafkaForwarder publishes events as JSON, keyed by subject so one subject's
// events stay ordered within a partition.
type KafkaForwarder struct {
	producer MessageProducer
	topic    string
}

func NewKafkaForwarder(p MessageProducer, topic string) *KafkaForwarder {
	return &KafkaForwarder{producer: p, topic: topic}
}

type wireEvent struct {
	Event
	UserID string `json:"user_id,omitempty"`
}

func (f *KafkaForwarder) Forward(_ context.Context, event Event) error {
	payload, err := json.Marshal(wireEvent{Event: event, UserID: event.UserIDString()})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	key := event.Subject
	if key == "" {
		key = event.UserIDString()
	}
	msg := &producer.Message{
		Topic: f.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: map[string]string{
			"event_type": event.Action,
			"request_id": event.RequestID,
		},
	}
	if err := f.producer.ProduceAsync(msg); err != nil {
		return fmt.Errorf("forward audit event: %w", err)
	}
	return nil
}
