package producer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresBrokers(t *testing.T) {
	_, err := New(Config{Brokers: " , "}, nil)
	assert.ErrorContains(t, err, "brokers not configured")
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092 ,,b:9092 "))
	assert.Empty(t, splitBrokers(""))
}

func TestProducer_ClosedRejectsWrites(t *testing.T) {
	// franz-go dials lazily, so a client with an unreachable seed can be built.
	p, err := New(Config{Brokers: "127.0.0.1:1", Acks: "1"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Close(time.Second))
	assert.ErrorIs(t, p.ProduceAsync(&Message{Topic: "t"}), ErrClosed)
	assert.ErrorIs(t, p.Ping(context.Background()), ErrClosed)
	assert.NoError(t, p.Close(time.Second), "second close is a no-op")
}
