package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casestatus/pkg/requestcontext"
)

func TestLogger_EnrichesFromContext(t *testing.T) {
	store := NewInMemoryStore()
	var buf bytes.Buffer
	logger := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)), NewPublisher(store))

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.77", "curl/8.0")
	ctx = requestcontext.WithTime(ctx, now)

	logger.Log(ctx, Event{Action: string(EventCaseLookup), Outcome: "not_found"})

	events, err := store.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, "203.0.113.0", events[0].ClientIP)
	assert.Equal(t, now, events[0].Timestamp)

	assert.Contains(t, buf.String(), `"log_type":"audit"`)
	assert.NotContains(t, buf.String(), "203.0.113.77")
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Log(context.Background(), Event{Action: "x"})
	})
	assert.NotPanics(t, func() {
		NewLogger(nil, nil).Log(context.Background(), Event{Action: "x"})
	})
}
