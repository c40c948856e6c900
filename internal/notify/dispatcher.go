package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

const DefaultThrottleInterval = 5 * time.Second

// Dispatcher fans job lifecycle events out to a set of backends.
// Progress events are rate-limited per job; lifecycle events always go out.
type Dispatcher struct {
	backends []Backend
	interval time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time // job id -> last progress emit
}

func NewDispatcher(interval time.Duration, backends ...Backend) *Dispatcher {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &Dispatcher{
		backends: backends,
		interval: interval,
		lastSent: make(map[string]time.Time),
	}
}

// AddBackend registers an extra backend. Not safe to call after dispatch begins.
func (d *Dispatcher) AddBackend(b Backend) {
	d.backends = append(d.backends, b)
}

func (d *Dispatcher) NotifyStarted(ctx context.Context, jobID, projectName string, totalFiles int) {
	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindStarted,
		Title:   "Indexing started",
		Message: fmt.Sprintf("Indexing %d files for project %s", totalFiles, projectName),
		Level:   LevelInfo,
	})
}

// NotifyProgress emits a progress event unless one was already sent for this
// job within the throttle interval.
func (d *Dispatcher) NotifyProgress(ctx context.Context, jobID string, indexed, total int, currentFile string) {
	now := time.Now()

	d.mu.Lock()
	last, ok := d.lastSent[jobID]
	if ok && now.Sub(last) < d.interval {
		d.mu.Unlock()
		return
	}
	d.lastSent[jobID] = now
	d.mu.Unlock()

	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindProgress,
		Title:   "Indexing progress",
		Message: fmt.Sprintf("%d/%d files indexed (current: %s)", indexed, total, currentFile),
		Level:   LevelInfo,
	})
}

func (d *Dispatcher) NotifyCompleted(ctx context.Context, jobID string, indexed, failed, totalUnits int) {
	d.forget(jobID)
	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindCompleted,
		Title:   "Indexing completed",
		Message: fmt.Sprintf("%d files indexed, %d failed, %d units extracted", indexed, failed, totalUnits),
		Level:   LevelSuccess,
	})
}

func (d *Dispatcher) NotifyPaused(ctx context.Context, jobID string, indexed, total int) {
	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindPaused,
		Title:   "Indexing paused",
		Message: fmt.Sprintf("Paused at %d/%d files", indexed, total),
		Level:   LevelWarning,
	})
}

func (d *Dispatcher) NotifyResumed(ctx context.Context, jobID string, remaining int) {
	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindResumed,
		Title:   "Indexing resumed",
		Message: fmt.Sprintf("Resuming with %d files remaining", remaining),
		Level:   LevelInfo,
	})
}

func (d *Dispatcher) NotifyFailed(ctx context.Context, jobID, reason string) {
	d.forget(jobID)
	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindFailed,
		Title:   "Indexing failed",
		Message: reason,
		Level:   LevelError,
	})
}

func (d *Dispatcher) NotifyCancelled(ctx context.Context, jobID string, indexed int) {
	d.forget(jobID)
	d.dispatch(ctx, Event{
		JobID:   jobID,
		Kind:    KindCancelled,
		Title:   "Indexing cancelled",
		Message: fmt.Sprintf("Cancelled after %d files", indexed),
		Level:   LevelWarning,
	})
}

// dispatch sends the event to every backend concurrently and waits for all
// of them. A backend error is logged, never propagated.
func (d *Dispatcher) dispatch(ctx context.Context, event Event) {
	var wg sync.WaitGroup
	for _, b := range d.backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			if err := b.Notify(ctx, event); err != nil {
				log.Printf("notify: backend %s failed for job %s: %v", b.Name(), event.JobID, err)
			}
		}(b)
	}
	wg.Wait()
}

func (d *Dispatcher) forget(jobID string) {
	d.mu.Lock()
	delete(d.lastSent, jobID)
	d.mu.Unlock()
}
