package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coderag/index_go_server/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// ProgressUpdate is a partial counter update; nil fields are left untouched.
type ProgressUpdate struct {
	IndexedFiles    int
	FailedFiles     int
	TotalUnits      int
	LastIndexedFile *string
	TotalFiles      *int
}

// Create registers a new queued job with an empty ledger.
func (r *JobRepository) Create(projectName, directoryPath string, recursive bool) (*model.IndexingJob, error) {
	job := &model.IndexingJob{
		ID:            uuid.NewString(),
		ProjectName:   projectName,
		DirectoryPath: directoryPath,
		Recursive:     recursive,
		Status:        model.StatusQueued,
		CreatedAt:     time.Now().UTC(),
	}

	if err := r.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// GetByID returns the job with its ledger loaded.
func (r *JobRepository) GetByID(id string) (*model.IndexingJob, error) {
	var job model.IndexingJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}

	paths, err := r.IndexedFilePaths(id)
	if err != nil {
		return nil, err
	}
	job.IndexedFileList = paths

	return &job, nil
}

// List returns jobs most-recent-first, optionally filtered by status and project.
func (r *JobRepository) List(status, projectName string, limit int) ([]*model.IndexingJob, error) {
	if limit <= 0 {
		limit = 100
	}

	query := r.db.Model(&model.IndexingJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if projectName != "" {
		query = query.Where("project_name = ?", projectName)
	}

	var jobs []*model.IndexingJob
	err := query.Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// UpdateStatus sets the status and applies the timestamp rules:
// started_at is set on entry to running (first time only), completed_at on
// entry to any terminal status.
func (r *JobRepository) UpdateStatus(id, status, errorMessage string) error {
	return r.db.Model(&model.IndexingJob{}).
		Where("id = ?", id).
		Updates(statusUpdates(status, errorMessage)).Error
}

// UpdateStatusFrom applies UpdateStatus only while the job is still in the
// from status. Returns whether a row was updated, so callers lose the race
// cleanly when another transition got there first.
func (r *JobRepository) UpdateStatusFrom(id, from, status, errorMessage string) (bool, error) {
	result := r.db.Model(&model.IndexingJob{}).
		Where("id = ? AND status = ?", id, from).
		Updates(statusUpdates(status, errorMessage))
	return result.RowsAffected > 0, result.Error
}

func statusUpdates(status, errorMessage string) map[string]interface{} {
	updates := map[string]interface{}{"status": status}

	if status == model.StatusRunning {
		updates["started_at"] = gorm.Expr("COALESCE(started_at, ?)", time.Now().UTC())
	} else if model.IsTerminal(status) {
		updates["completed_at"] = time.Now().UTC()
	}

	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	return updates
}

// UpdateProgress writes the counters; it never touches status or timestamps.
func (r *JobRepository) UpdateProgress(id string, p ProgressUpdate) error {
	updates := map[string]interface{}{
		"indexed_files": p.IndexedFiles,
		"failed_files":  p.FailedFiles,
		"total_units":   p.TotalUnits,
	}

	if p.LastIndexedFile != nil {
		updates["last_indexed_file"] = *p.LastIndexedFile
	}
	if p.TotalFiles != nil {
		updates["total_files"] = *p.TotalFiles
	}

	return r.db.Model(&model.IndexingJob{}).Where("id = ?", id).Updates(updates).Error
}

// AddIndexedFile appends a path to the job's ledger. The insert ignores
// conflicts on (job_id, file_path), so the append is idempotent.
func (r *JobRepository) AddIndexedFile(id, filePath string) error {
	entry := &model.IndexedFile{
		JobID:     id,
		FilePath:  filePath,
		IndexedAt: time.Now().UTC(),
	}

	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

// IndexedFilePaths returns the ledger in append order.
func (r *JobRepository) IndexedFilePaths(id string) ([]string, error) {
	var paths []string
	err := r.db.Model(&model.IndexedFile{}).
		Where("job_id = ?", id).
		Order("id ASC").
		Pluck("file_path", &paths).Error
	return paths, err
}

// Delete removes a job and its ledger. Returns false if the job does not exist.
// Callers must only invoke this on terminal jobs; that guard lives in the controller.
func (r *JobRepository) Delete(id string) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&model.IndexingJob{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("job_id = ?", id).Delete(&model.IndexedFile{}).Error
	})
	return deleted, err
}

// CleanOldJobs deletes terminal jobs whose completed_at is older than the
// cutoff and returns how many were removed.
func (r *JobRepository) CleanOldJobs(ageDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -ageDays)

	var ids []string
	err := r.db.Model(&model.IndexingJob{}).
		Where("completed_at < ?", cutoff).
		Where("status IN ?", []string{model.StatusCompleted, model.StatusFailed, model.StatusCancelled}).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var removed int64
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id IN ?", ids).Delete(&model.IndexedFile{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&model.IndexingJob{})
		removed = result.RowsAffected
		return result.Error
	})
	return removed, err
}
