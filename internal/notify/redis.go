package notify

import (
	"context"

	"github.com/coderag/index_go_server/internal/pkg/pubsub"
)

// RedisBackend publishes events on the shared redis channel so other
// processes (or a ws relay) can pick them up.
type RedisBackend struct {
	publisher *pubsub.Publisher
}

func NewRedisBackend(publisher *pubsub.Publisher) *RedisBackend {
	return &RedisBackend{publisher: publisher}
}

func (b *RedisBackend) Name() string {
	return "redis"
}

func (b *RedisBackend) Notify(ctx context.Context, event Event) error {
	return b.publisher.PublishEvent(ctx, &pubsub.EventMessage{
		JobID:   event.JobID,
		Kind:    event.Kind,
		Title:   event.Title,
		Message: event.Message,
		Level:   event.Level,
	})
}
