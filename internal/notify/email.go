package notify

import (
	"context"

	"github.com/coderag/index_go_server/internal/pkg/email"
)

// EmailBackend mails terminal job events to a configured recipient.
// Intermediate events are dropped.
type EmailBackend struct {
	svc *email.Service
	to  string
}

func NewEmailBackend(svc *email.Service, to string) *EmailBackend {
	return &EmailBackend{svc: svc, to: to}
}

func (b *EmailBackend) Name() string {
	return "email"
}

func (b *EmailBackend) Notify(_ context.Context, event Event) error {
	switch event.Kind {
	case KindCompleted, KindFailed, KindCancelled:
	default:
		return nil
	}
	return b.svc.SendJobEvent(b.to, event.JobID, event.Title, event.Message, event.Level)
}
