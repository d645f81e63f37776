package adapters

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/internal/server/events"
	"github.com/agentstation/menumerge/internal/server/sse"
	ws "github.com/agentstation/menumerge/internal/server/websocket"
	"github.com/agentstation/menumerge/pkg/logging"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestKafkaSubscriber(t *testing.T) {
	w := &fakeWriter{}
	sub := NewKafkaSubscriberWithWriter(w, "menumerge.events")

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sub.Send(events.Event{
		Type:      events.SnapshotReplaced,
		Timestamp: ts,
		Data:      map[string]int{"groups": 2},
	}))
	require.NoError(t, sub.Close())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "menumerge.events", msg.Topic)
	assert.Equal(t, "snapshot.replaced", string(msg.Key))
	assert.Equal(t, ts, msg.Time)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, events.SnapshotReplaced, decoded.Type)
	assert.True(t, w.closed)
}

func TestNewKafkaSubscriberValidation(t *testing.T) {
	_, err := NewKafkaSubscriber(nil, "topic")
	assert.Error(t, err)
	_, err = NewKafkaSubscriber([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	sub, err := NewKafkaSubscriber([]string{"localhost:9092"}, "menumerge.events")
	require.NoError(t, err)
	assert.NoError(t, sub.Close())
}

func TestTransportSubscribers(t *testing.T) {
	logger := logging.NewNopLogger()
	hub := ws.NewHub(logger)
	broadcaster := sse.NewBroadcaster(logger)

	event := events.Event{Type: events.CycleFailed, Timestamp: time.Now(), Data: nil}

	wsSub := NewWebSocketSubscriber(hub)
	assert.NoError(t, wsSub.Send(event))
	assert.NoError(t, wsSub.Close())

	sseSub := NewSSESubscriber(broadcaster)
	assert.NoError(t, sseSub.Send(event))
	assert.NoError(t, sseSub.Close())
}
