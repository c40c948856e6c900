package indexer

import (
	"context"
)

// FileResult reports the outcome of indexing a single file.
type FileResult struct {
	// Skipped means the file was unchanged since the last index and
	// produced no new units.
	Skipped      bool
	UnitsIndexed int
}

// Worker processes one file at a time on behalf of a job's execution loop.
// IndexFile errors are counted by the caller and never abort the job;
// an Initialize error fails the whole job. Close is always called on
// loop exit.
type Worker interface {
	Initialize() error
	IndexFile(ctx context.Context, path string) (*FileResult, error)
	Close() error
	SupportedExtensions() []string
}
