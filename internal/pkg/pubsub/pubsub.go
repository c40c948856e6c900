package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelIndexingEvents = "indexing_events"
)

// EventMessage is the wire form of a job event on the redis channel.
type EventMessage struct {
	JobID   string `json:"job_id"`
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	Level   string `json:"level"`
}

// Publisher pushes job events to redis.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishEvent publishes one event on the indexing channel.
func (p *Publisher) PublishEvent(ctx context.Context, msg *EventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event message: %w", err)
	}

	return p.client.Publish(ctx, ChannelIndexingEvents, data).Err()
}

// Subscriber consumes job events from redis.
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe blocks, invoking handler for each event until ctx is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*EventMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelIndexingEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event EventMessage
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // skip malformed payloads
			}

			handler(&event)
		}
	}
}
