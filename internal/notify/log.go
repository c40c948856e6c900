package notify

import (
	"context"
	"log"
)

// LogBackend writes every event to the process log. Always installed so a
// deployment with no redis/ws/email still has a visible event stream.
type LogBackend struct{}

func NewLogBackend() *LogBackend {
	return &LogBackend{}
}

func (b *LogBackend) Name() string {
	return "log"
}

func (b *LogBackend) Notify(_ context.Context, event Event) error {
	log.Printf("[%s] job %s: %s - %s", event.Level, event.JobID, event.Title, event.Message)
	return nil
}
