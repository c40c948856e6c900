package notify

import (
	"context"

	"github.com/coderag/index_go_server/internal/pkg/ws"
)

// WSBackend pushes events to connected websocket watchers.
type WSBackend struct {
	hub *ws.Hub
}

func NewWSBackend(hub *ws.Hub) *WSBackend {
	return &WSBackend{hub: hub}
}

func (b *WSBackend) Name() string {
	return "websocket"
}

func (b *WSBackend) Notify(_ context.Context, event Event) error {
	return b.hub.SendToJob(event.JobID, &ws.Message{
		Type: event.Kind,
		Data: event,
	})
}
