package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casestatus/internal/platform/kafka/producer"
	id "casestatus/pkg/domain"
)

type captureProducer struct {
	messages []*producer.Message
	err      error
}

func (p *captureProducer) ProduceAsync(msg *producer.Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func TestKafkaForwarder_EncodesEvent(t *testing.T) {
	p := &captureProducer{}
	f := NewKafkaForwarder(p, "casestatus.audit")
	userID := id.UserID(uuid.New())

	err := f.Forward(context.Background(), Event{
		ID:        uuid.New(),
		Action:    string(EventAdminAccessGranted),
		UserID:    userID,
		Outcome:   "granted",
		RequestID: "req-1",
	})
	require.NoError(t, err)
	require.Len(t, p.messages, 1)

	msg := p.messages[0]
	assert.Equal(t, "casestatus.audit", msg.Topic)
	assert.Equal(t, userID.String(), string(msg.Key), "falls back to user id when subject is empty")
	assert.Equal(t, string(EventAdminAccessGranted), msg.Headers["event_type"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, userID.String(), decoded["user_id"])
	assert.Equal(t, "granted", decoded["outcome"])
}

func TestKafkaForwarder_KeysBySubject(t *testing.T) {
	p := &captureProducer{}
	f := NewKafkaForwarder(p, "t")

	require.NoError(t, f.Forward(context.Background(), Event{Action: string(EventCaseLookup), Subject: "abc123"}))
	assert.Equal(t, "abc123", string(p.messages[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(p.messages[0].Value, &decoded))
	_, hasUser := decoded["user_id"]
	assert.False(t, hasUser)
}

func TestKafkaForwarder_ProducerError(t *testing.T) {
	f := NewKafkaForwarder(&captureProducer{err: producer.ErrClosed}, "t")
	err := f.Forward(context.Background(), Event{Action: "x"})
	assert.True(t, errors.Is(err, producer.ErrClosed))
}
