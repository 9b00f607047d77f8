package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var detected = time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC)

func testPublisher(w messageWriter) *Publisher {
	return &Publisher{
		writer: w,
		clock:  clockwork.NewFakeClockAt(detected),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func ptr[T any](v T) *T { return &v }

func TestSerializeToMessage(t *testing.T) {
	event := OutageEvent{
		County:     "Mayo",
		DetectedAt: detected,
		Outage:     domain.Outage{ObjectID: ptr(int64(1234)), Title: "Burst main", Reference: ptr("MAY00102991")},
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("1234"), msg.Key)
	assert.Contains(t, string(msg.Value), `"reference":"MAY00102991"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "county", msg.Headers[0].Key)
	assert.Equal(t, []byte("Mayo"), msg.Headers[0].Value)
	assert.Equal(t, "detected_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-06-20T08:00:00Z"), msg.Headers[1].Value)
}

func TestPublisher_Notify(t *testing.T) {
	w := &fakeWriter{}
	p := testPublisher(w)

	err := p.Notify(context.Background(), "Mayo", []domain.Outage{
		{ObjectID: ptr(int64(2)), Title: "B"},
		{GlobalID: "{G-1}", Title: "A"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("2"), w.msgs[0].Key)
	assert.Equal(t, []byte("global:{G-1}"), w.msgs[1].Key)

	var got OutageEvent
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	assert.Equal(t, "Mayo", got.County)
	assert.True(t, detected.Equal(got.DetectedAt))
	assert.Equal(t, "A", got.Outage.Title)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_NotifyEmptyBatch(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	require.NoError(t, testPublisher(w).Notify(context.Background(), "Mayo", nil))
}

func TestPublisher_NotifyWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	err := testPublisher(w).Notify(context.Background(), "Mayo", []domain.Outage{{Title: "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotification))
	assert.Contains(t, err.Error(), "leader not available")
}
