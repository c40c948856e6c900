package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coderag/index_go_server/internal/model"
)

// TestJob creates an indexing job row in the given status.
func TestJob(t *testing.T, db *gorm.DB, status string, opts ...func(*model.IndexingJob)) *model.IndexingJob {
	t.Helper()

	job := &model.IndexingJob{
		ID:            uuid.NewString(),
		ProjectName:   fmt.Sprintf("project_%d", time.Now().UnixNano()%10000),
		DirectoryPath: "/tmp/testproject",
		Recursive:     true,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}

	if status == model.StatusRunning {
		now := time.Now().UTC()
		job.StartedAt = &now
	}
	if model.IsTerminal(status) {
		started := time.Now().UTC().Add(-time.Minute)
		completed := time.Now().UTC()
		job.StartedAt = &started
		job.CompletedAt = &completed
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}

	return job
}

// WithProject sets the project name.
func WithProject(name string) func(*model.IndexingJob) {
	return func(j *model.IndexingJob) {
		j.ProjectName = name
	}
}

// WithDirectory sets the directory path.
func WithDirectory(path string) func(*model.IndexingJob) {
	return func(j *model.IndexingJob) {
		j.DirectoryPath = path
	}
}

// WithCreatedAt backdates the job.
func WithCreatedAt(ts time.Time) func(*model.IndexingJob) {
	return func(j *model.IndexingJob) {
		j.CreatedAt = ts
	}
}

// WithCompletedAt backdates the completion timestamp.
func WithCompletedAt(ts time.Time) func(*model.IndexingJob) {
	return func(j *model.IndexingJob) {
		j.CompletedAt = &ts
	}
}

// WithProgress sets the persisted counters.
func WithProgress(indexed, failed, units int) func(*model.IndexingJob) {
	return func(j *model.IndexingJob) {
		j.IndexedFiles = indexed
		j.FailedFiles = failed
		j.TotalUnits = units
	}
}

// TestLedgerEntry appends a path to a job's indexed-file ledger.
func TestLedgerEntry(t *testing.T, db *gorm.DB, jobID, filePath string) *model.IndexedFile {
	t.Helper()

	entry := &model.IndexedFile{
		JobID:     jobID,
		FilePath:  filePath,
		IndexedAt: time.Now().UTC(),
	}

	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create ledger entry: %v", err)
	}

	return entry
}
