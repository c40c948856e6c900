package notify

import (
	"context"
)

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event kinds. Progress is the only throttled kind.
const (
	KindStarted   = "job_started"
	KindProgress  = "job_progress"
	KindCompleted = "job_completed"
	KindPaused    = "job_paused"
	KindResumed   = "job_resumed"
	KindFailed    = "job_failed"
	KindCancelled = "job_cancelled"
)

// Event is one job lifecycle notification fanned out to every backend.
type Event struct {
	JobID   string `json:"job_id"`
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

// Backend delivers events to one destination. A failing backend never
// affects the others or the caller.
type Backend interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}
