package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coderag/index_go_server/internal/indexer"
)

// FakeWorker is a controllable indexing worker for controller tests.
// It records every path it was asked to index.
type FakeWorker struct {
	// Delay is applied per file, to give tests time to pause/cancel.
	Delay time.Duration
	// UnitsPerFile is reported for every successful file.
	UnitsPerFile int
	// FailPaths makes IndexFile return an error for these paths.
	FailPaths map[string]bool
	// SkipPaths makes IndexFile report the file as unchanged.
	SkipPaths map[string]bool
	// InitErr makes Initialize fail.
	InitErr error

	mu      sync.Mutex
	indexed []string
	closed  bool
}

func NewFakeWorker() *FakeWorker {
	return &FakeWorker{UnitsPerFile: 1}
}

func (w *FakeWorker) Initialize() error {
	return w.InitErr
}

func (w *FakeWorker) SupportedExtensions() []string {
	return []string{".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".rs"}
}

func (w *FakeWorker) IndexFile(ctx context.Context, path string) (*indexer.FileResult, error) {
	if w.Delay > 0 {
		select {
		case <-time.After(w.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if w.FailPaths[path] {
		return nil, errors.New("simulated index failure")
	}

	w.mu.Lock()
	w.indexed = append(w.indexed, path)
	w.mu.Unlock()

	if w.SkipPaths[path] {
		return &indexer.FileResult{Skipped: true}, nil
	}
	return &indexer.FileResult{UnitsIndexed: w.UnitsPerFile}, nil
}

func (w *FakeWorker) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Indexed returns the paths indexed so far.
func (w *FakeWorker) Indexed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.indexed))
	copy(out, w.indexed)
	return out
}

// Closed reports whether Close was called.
func (w *FakeWorker) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
