package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/coderag/index_go_server/internal/indexer"
	"github.com/coderag/index_go_server/internal/model"
	"github.com/coderag/index_go_server/internal/notify"
	"github.com/coderag/index_go_server/internal/repository"
)

var (
	ErrDirectoryNotFound = errors.New("directory does not exist")
	ErrNotDirectory      = errors.New("path is not a directory")
	ErrJobActive         = errors.New("job is still active")
)

const DefaultPauseTimeout = 5 * time.Second

// WorkerFactory builds a fresh indexing worker per job run.
type WorkerFactory func(projectName string) indexer.Worker

// Controller owns the job lifecycle: it starts execution loops, routes
// pause/resume/cancel requests to them, and guards against two loops
// running the same job.
type Controller struct {
	repo         *repository.JobRepository
	notifier     *notify.Dispatcher
	newWorker    WorkerFactory
	reporter     *Reporter
	pauseTimeout time.Duration

	mu      sync.Mutex
	signals map[string]*cancelSignal
	handles map[string]chan struct{} // job id -> closed when its loop exits
}

func NewController(repo *repository.JobRepository, notifier *notify.Dispatcher, factory WorkerFactory, reporter *Reporter, pauseTimeout time.Duration) *Controller {
	if pauseTimeout <= 0 {
		pauseTimeout = DefaultPauseTimeout
	}
	return &Controller{
		repo:         repo,
		notifier:     notifier,
		newWorker:    factory,
		reporter:     reporter,
		pauseTimeout: pauseTimeout,
		signals:      make(map[string]*cancelSignal),
		handles:      make(map[string]chan struct{}),
	}
}

// StartIndexingJob validates the directory, registers a queued job and
// schedules its execution loop. With background=false the call returns
// only after the loop exits.
func (c *Controller) StartIndexingJob(ctx context.Context, directory, projectName string, recursive, background bool) (string, error) {
	info, err := os.Stat(directory)
	if os.IsNotExist(err) {
		return "", ErrDirectoryNotFound
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}

	if projectName == "" {
		projectName = filepath.Base(directory)
	}

	job, err := c.repo.Create(projectName, directory, recursive)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	c.schedule(job.ID, background)
	return job.ID, nil
}

// PauseJob asks a running job to stop after the current file, marks it
// paused and waits a bounded time for the loop to acknowledge. Past the
// timeout the loop still stops at its next checkpoint.
func (c *Controller) PauseJob(ctx context.Context, id string) (bool, error) {
	job, err := c.repo.GetByID(id)
	if err != nil {
		return false, err
	}
	if job.Status != model.StatusRunning {
		return false, nil
	}

	c.signal(id).Set()
	if err := c.repo.UpdateStatus(id, model.StatusPaused, ""); err != nil {
		return false, err
	}
	c.waitForStop(id)

	if job, err = c.repo.GetByID(id); err == nil {
		total := 0
		if job.TotalFiles != nil {
			total = *job.TotalFiles
		}
		c.notifier.NotifyPaused(ctx, id, job.IndexedFiles, total)
	}
	return true, nil
}

// ResumeJob requeues a paused job. Files already in the ledger are not
// reprocessed.
func (c *Controller) ResumeJob(ctx context.Context, id string, background bool) (bool, error) {
	job, err := c.repo.GetByID(id)
	if err != nil {
		return false, err
	}
	if job.Status != model.StatusPaused {
		return false, nil
	}

	c.mu.Lock()
	if _, running := c.handles[id]; running {
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	c.signal(id).Clear()
	if err := c.repo.UpdateStatus(id, model.StatusQueued, ""); err != nil {
		return false, err
	}

	c.schedule(id, background)
	return true, nil
}

// CancelJob stops a job for good. Queued and paused jobs are cancelled
// directly; running jobs get the cooperative signal.
func (c *Controller) CancelJob(ctx context.Context, id string) (bool, error) {
	job, err := c.repo.GetByID(id)
	if err != nil {
		return false, err
	}

	switch job.Status {
	case model.StatusQueued, model.StatusPaused:
		// A loop may already be scheduled for a queued job; the signal
		// stops it before it can revive the row.
		c.signal(id).Set()
		if err := c.repo.UpdateStatus(id, model.StatusCancelled, ""); err != nil {
			return false, err
		}
		c.notifier.NotifyCancelled(ctx, id, job.IndexedFiles)
		return true, nil
	case model.StatusRunning:
		c.signal(id).Set()
		if err := c.repo.UpdateStatus(id, model.StatusCancelled, ""); err != nil {
			return false, err
		}
		c.waitForStop(id)

		if job, err = c.repo.GetByID(id); err == nil {
			c.notifier.NotifyCancelled(ctx, id, job.IndexedFiles)
		}
		return true, nil
	default:
		return false, nil
	}
}

// GetJobStatus returns the job with its ledger.
func (c *Controller) GetJobStatus(id string) (*model.IndexingJob, error) {
	return c.repo.GetByID(id)
}

// ListJobs returns jobs most-recent-first with optional filters.
func (c *Controller) ListJobs(status, projectName string, limit int) ([]*model.IndexingJob, error) {
	return c.repo.List(status, projectName, limit)
}

// DeleteJob removes a terminal job and its ledger. Active jobs must be
// cancelled first.
func (c *Controller) DeleteJob(id string) (bool, error) {
	job, err := c.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if !model.IsTerminal(job.Status) {
		return false, ErrJobActive
	}

	c.mu.Lock()
	delete(c.signals, id)
	c.mu.Unlock()

	return c.repo.Delete(id)
}

// ReconcileStale demotes jobs left in running by a previous process to
// paused so they can be resumed. Called once at startup when enabled.
func (c *Controller) ReconcileStale() (int, error) {
	jobs, err := c.repo.List(model.StatusRunning, "", 0)
	if err != nil {
		return 0, err
	}

	demoted := 0
	for _, job := range jobs {
		c.mu.Lock()
		_, active := c.handles[job.ID]
		c.mu.Unlock()
		if active {
			continue
		}

		if err := c.repo.UpdateStatus(job.ID, model.StatusPaused, ""); err != nil {
			return demoted, err
		}
		log.Printf("worker: demoted stale running job %s to paused", job.ID)
		demoted++
	}
	return demoted, nil
}

// schedule registers the execution handle and launches the loop. A job
// that already has a live handle is never started twice.
func (c *Controller) schedule(id string, background bool) {
	c.mu.Lock()
	if _, running := c.handles[id]; running {
		c.mu.Unlock()
		return
	}
	done := make(chan struct{})
	c.handles[id] = done
	c.mu.Unlock()

	run := func() {
		defer func() {
			c.mu.Lock()
			delete(c.handles, id)
			c.mu.Unlock()
			close(done)
		}()
		c.runJob(id)
	}

	if background {
		go run()
	} else {
		run()
	}
}

// waitForStop blocks until the job's loop exits or the pause timeout
// elapses. Past the timeout the stop request stays pending and the loop
// will honor it at its next checkpoint.
func (c *Controller) waitForStop(id string) {
	c.mu.Lock()
	done, ok := c.handles[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-done:
	case <-time.After(c.pauseTimeout):
		log.Printf("worker: job %s did not stop within %s, proceeding", id, c.pauseTimeout)
	}
}

// runJob is the per-job execution loop. Exactly one instance runs per
// job id at a time.
func (c *Controller) runJob(id string) {
	ctx := context.Background()
	sig := c.signal(id)

	job, err := c.repo.GetByID(id)
	if err != nil {
		log.Printf("worker: failed to load job %s: %v", id, err)
		return
	}

	// Guarded transition: a job cancelled between scheduling and this
	// point must stay terminal.
	started, err := c.repo.UpdateStatusFrom(id, model.StatusQueued, model.StatusRunning, "")
	if err != nil {
		log.Printf("worker: failed to mark job %s running: %v", id, err)
		return
	}
	if !started {
		return
	}

	w := c.newWorker(job.ProjectName)
	if err := w.Initialize(); err != nil {
		c.failJob(ctx, id, fmt.Sprintf("worker initialization failed: %v", err))
		return
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("worker: close failed for job %s: %v", id, err)
		}
	}()

	ledger := make(map[string]struct{}, len(job.IndexedFileList))
	for _, path := range job.IndexedFileList {
		ledger[path] = struct{}{}
	}

	files, err := enumerateFiles(job.DirectoryPath, job.Recursive, w.SupportedExtensions(), ledger)
	if err != nil {
		c.failJob(ctx, id, fmt.Sprintf("failed to enumerate files: %v", err))
		return
	}

	total := len(ledger) + len(files)
	if err := c.repo.UpdateProgress(id, repository.ProgressUpdate{
		IndexedFiles: job.IndexedFiles,
		FailedFiles:  job.FailedFiles,
		TotalUnits:   job.TotalUnits,
		TotalFiles:   &total,
	}); err != nil {
		log.Printf("worker: failed to set total for job %s: %v", id, err)
	}

	if len(ledger) > 0 {
		c.notifier.NotifyResumed(ctx, id, len(files))
	} else {
		c.notifier.NotifyStarted(ctx, id, job.ProjectName, total)
	}

	indexed := job.IndexedFiles
	failed := job.FailedFiles
	units := job.TotalUnits

	for _, path := range files {
		// The caller that set the signal owns the status transition.
		if sig.Signalled() {
			return
		}

		result, err := w.IndexFile(ctx, path)
		if err != nil {
			log.Printf("worker: job %s failed to index %s: %v", id, path, err)
			failed++
		} else {
			indexed++
			if !result.Skipped {
				units += result.UnitsIndexed
			}
			if err := c.repo.AddIndexedFile(id, path); err != nil {
				log.Printf("worker: job %s failed to record %s: %v", id, path, err)
			}
		}

		last := path
		if err := c.repo.UpdateProgress(id, repository.ProgressUpdate{
			IndexedFiles:    indexed,
			FailedFiles:     failed,
			TotalUnits:      units,
			LastIndexedFile: &last,
		}); err != nil {
			log.Printf("worker: failed to update progress for job %s: %v", id, err)
		}

		c.notifier.NotifyProgress(ctx, id, indexed, total, path)
	}

	// A signal set during the last file already produced a transition,
	// and the guard closes the window between the check and the write.
	if sig.Signalled() {
		return
	}
	completed, err := c.repo.UpdateStatusFrom(id, model.StatusRunning, model.StatusCompleted, "")
	if err != nil {
		log.Printf("worker: failed to mark job %s completed: %v", id, err)
		return
	}
	if !completed {
		return
	}

	if c.reporter != nil {
		if url, err := c.reporter.Archive(id); err != nil {
			log.Printf("worker: failed to archive report for job %s: %v", id, err)
		} else if url != "" {
			log.Printf("worker: report for job %s archived at %s", id, url)
		}
	}

	c.notifier.NotifyCompleted(ctx, id, indexed, failed, units)
}

func (c *Controller) failJob(ctx context.Context, id, reason string) {
	if err := c.repo.UpdateStatus(id, model.StatusFailed, reason); err != nil {
		log.Printf("worker: failed to mark job %s failed: %v", id, err)
	}
	c.notifier.NotifyFailed(ctx, id, reason)
}

func (c *Controller) signal(id string) *cancelSignal {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig, ok := c.signals[id]
	if !ok {
		sig = newCancelSignal()
		c.signals[id] = sig
	}
	return sig
}
