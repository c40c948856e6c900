package model

import (
	"time"
)

// Job statuses. Legal transitions:
// queued -> running -> {paused, completed, failed, cancelled}, paused -> queued.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// IsTerminal reports whether a job in this status can make no further transition.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type IndexingJob struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	ProjectName     string     `gorm:"size:200;not null;index" json:"project_name"`
	DirectoryPath   string     `gorm:"size:500;not null" json:"directory_path"`
	Recursive       bool       `gorm:"not null;default:true" json:"recursive"`
	Status          string     `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TotalFiles      *int       `json:"total_files,omitempty"`
	IndexedFiles    int        `gorm:"default:0" json:"indexed_files"`
	FailedFiles     int        `gorm:"default:0" json:"failed_files"`
	TotalUnits      int        `gorm:"default:0" json:"total_units"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	LastIndexedFile string     `gorm:"size:500" json:"last_indexed_file,omitempty"`

	// Resumption ledger, stored in indexed_files and loaded on read.
	IndexedFileList []string `gorm:"-" json:"indexed_file_list,omitempty"`
}

func (IndexingJob) TableName() string {
	return "indexing_jobs"
}

// IndexedFile is one ledger row: a file a job has already processed.
// The composite unique index makes ledger appends idempotent.
type IndexedFile struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	JobID     string    `gorm:"size:36;not null;uniqueIndex:idx_job_file" json:"job_id"`
	FilePath  string    `gorm:"size:500;not null;uniqueIndex:idx_job_file" json:"file_path"`
	IndexedAt time.Time `json:"indexed_at"`
}

func (IndexedFile) TableName() string {
	return "indexed_files"
}
