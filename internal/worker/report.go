package worker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coderag/index_go_server/internal/model"
	"github.com/coderag/index_go_server/internal/repository"
)

// ReportArchiver uploads a completion report and returns its URL.
// Satisfied by the OSS client.
type ReportArchiver interface {
	UploadReport(jobID string, data []byte) (string, error)
}

// Reporter writes a completion report per finished job, to OSS when an
// archiver is configured, otherwise to a local directory.
type Reporter struct {
	repo     *repository.JobRepository
	archiver ReportArchiver
	localDir string
}

func NewReporter(repo *repository.JobRepository, archiver ReportArchiver, localDir string) *Reporter {
	return &Reporter{
		repo:     repo,
		archiver: archiver,
		localDir: localDir,
	}
}

type completionReport struct {
	JobID         string     `json:"job_id"`
	ProjectName   string     `json:"project_name"`
	DirectoryPath string     `json:"directory_path"`
	Status        string     `json:"status"`
	TotalFiles    *int       `json:"total_files"`
	IndexedFiles  int        `json:"indexed_files"`
	FailedFiles   int        `json:"failed_files"`
	TotalUnits    int        `json:"total_units"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	Files         []string   `json:"files"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// Archive builds and stores the report, returning its URL or local path.
func (r *Reporter) Archive(jobID string) (string, error) {
	job, err := r.repo.GetByID(jobID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(buildReport(job), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if r.archiver != nil {
		return r.archiver.UploadReport(jobID, data)
	}

	if r.localDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(r.localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	path := filepath.Join(r.localDir, fmt.Sprintf("%s.json", jobID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func buildReport(job *model.IndexingJob) completionReport {
	return completionReport{
		JobID:         job.ID,
		ProjectName:   job.ProjectName,
		DirectoryPath: job.DirectoryPath,
		Status:        job.Status,
		TotalFiles:    job.TotalFiles,
		IndexedFiles:  job.IndexedFiles,
		FailedFiles:   job.FailedFiles,
		TotalUnits:    job.TotalUnits,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		Files:         job.IndexedFileList,
		GeneratedAt:   time.Now().UTC(),
	}
}
