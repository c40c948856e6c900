package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coderag/index_go_server/internal/model/dto"
	"github.com/coderag/index_go_server/internal/pkg/response"
	"github.com/coderag/index_go_server/internal/worker"
)

type JobHandler struct {
	controller *worker.Controller
}

func NewJobHandler(controller *worker.Controller) *JobHandler {
	return &JobHandler{controller: controller}
}

// Create starts a new indexing job.
// POST /api/v1/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}
	background := true
	if req.Background != nil {
		background = *req.Background
	}

	jobID, err := h.controller.StartIndexingJob(c.Request.Context(), req.DirectoryPath, req.ProjectName, recursive, background)
	if err != nil {
		if errors.Is(err, worker.ErrDirectoryNotFound) || errors.Is(err, worker.ErrNotDirectory) {
			response.ParamError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"job_id": jobID})
}

// List returns jobs, newest first.
// GET /api/v1/jobs?status=&project_name=&limit=
func (h *JobHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.ParamError(c, "invalid limit")
			return
		}
		limit = parsed
	}

	jobs, err := h.controller.ListJobs(c.Query("status"), c.Query("project_name"), limit)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"jobs": jobs, "count": len(jobs)})
}

// Get returns one job with its indexed-file ledger.
// GET /api/v1/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.controller.GetJobStatus(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "job not found")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, job)
}

// Files returns the job's indexed-file ledger only.
// GET /api/v1/jobs/:id/files
func (h *JobHandler) Files(c *gin.Context) {
	job, err := h.controller.GetJobStatus(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "job not found")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"files": job.IndexedFileList, "count": len(job.IndexedFileList)})
}

// Pause asks a running job to stop after the current file.
// POST /api/v1/jobs/:id/pause
func (h *JobHandler) Pause(c *gin.Context) {
	ok, err := h.controller.PauseJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "job not found")
			return
		}
		response.ServerError(c, "")
		return
	}
	if !ok {
		response.ConflictError(c, "job is not running")
		return
	}

	response.SuccessWithMessage(c, "job paused", nil)
}

// Resume requeues a paused job.
// POST /api/v1/jobs/:id/resume
func (h *JobHandler) Resume(c *gin.Context) {
	var req dto.ResumeJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	background := true
	if req.Background != nil {
		background = *req.Background
	}

	ok, err := h.controller.ResumeJob(c.Request.Context(), c.Param("id"), background)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "job not found")
			return
		}
		response.ServerError(c, "")
		return
	}
	if !ok {
		response.ConflictError(c, "job is not paused")
		return
	}

	response.SuccessWithMessage(c, "job resumed", nil)
}

// Cancel stops a job permanently.
// POST /api/v1/jobs/:id/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	ok, err := h.controller.CancelJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "job not found")
			return
		}
		response.ServerError(c, "")
		return
	}
	if !ok {
		response.ConflictError(c, "job is already finished")
		return
	}

	response.SuccessWithMessage(c, "job cancelled", nil)
}

// Delete removes a terminal job and its ledger.
// DELETE /api/v1/jobs/:id
func (h *JobHandler) Delete(c *gin.Context) {
	ok, err := h.controller.DeleteJob(c.Param("id"))
	if err != nil {
		if errors.Is(err, worker.ErrJobActive) {
			response.ConflictError(c, "job must be cancelled before deletion")
			return
		}
		response.ServerError(c, "")
		return
	}
	if !ok {
		response.NotFoundError(c, "job not found")
		return
	}

	response.SuccessWithMessage(c, "job deleted", nil)
}
