package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestEventMessage_JSON(t *testing.T) {
	msg := &EventMessage{
		JobID:   "job-1",
		Kind:    "job_progress",
		Title:   "Indexing progress",
		Message: "3/10 files indexed",
		Level:   "info",
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "job_id")
	assert.Contains(t, raw, "kind")
	assert.Contains(t, raw, "level")

	var decoded EventMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *msg, decoded)
}

func TestEventMessage_OmitEmptyMessage(t *testing.T) {
	msg := &EventMessage{JobID: "job-1", Kind: "job_started", Level: "info"}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasMessage := raw["message"]
	assert.False(t, hasMessage, "empty message should be omitted")
}

func TestPublisherSubscriber_RoundTrip(t *testing.T) {
	client := testClient(t)

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *EventMessage, 1)
	go func() {
		subscriber.Subscribe(ctx, func(msg *EventMessage) {
			received <- msg
		})
	}()

	// Give the subscriber time to connect.
	time.Sleep(100 * time.Millisecond)

	msg := &EventMessage{
		JobID:   "job-1",
		Kind:    "job_completed",
		Title:   "Indexing completed",
		Message: "10 files indexed, 0 failed, 42 units extracted",
		Level:   "success",
	}
	require.NoError(t, publisher.PublishEvent(ctx, msg))

	select {
	case got := <-received:
		assert.Equal(t, msg.JobID, got.JobID)
		assert.Equal(t, msg.Kind, got.Kind)
		assert.Equal(t, msg.Level, got.Level)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}

func TestSubscriber_StopsOnContextCancel(t *testing.T) {
	client := testClient(t)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- subscriber.Subscribe(ctx, func(*EventMessage) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestSubscriber_SkipsMalformedPayload(t *testing.T) {
	client := testClient(t)

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *EventMessage, 1)
	go func() {
		subscriber.Subscribe(ctx, func(msg *EventMessage) {
			received <- msg
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// Garbage first, then a valid event: only the valid one arrives.
	require.NoError(t, client.Publish(ctx, ChannelIndexingEvents, "not-json{").Err())
	require.NoError(t, publisher.PublishEvent(ctx, &EventMessage{JobID: "job-1", Kind: "job_started", Level: "info"}))

	select {
	case got := <-received:
		assert.Equal(t, "job-1", got.JobID)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}
