package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/index_go_server/internal/indexer"
	"github.com/coderag/index_go_server/internal/model"
	"github.com/coderag/index_go_server/internal/notify"
	"github.com/coderag/index_go_server/internal/pkg/response"
	"github.com/coderag/index_go_server/internal/repository"
	"github.com/coderag/index_go_server/internal/testutil"
	"github.com/coderag/index_go_server/internal/worker"
)

type jobTestEnv struct {
	engine *gin.Engine
	repo   *repository.JobRepository
}

func setupJobEnv(t *testing.T) *jobTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	repo := repository.NewJobRepository(db)
	dispatcher := notify.NewDispatcher(time.Hour, notify.NewLogBackend())
	factory := func(projectName string) indexer.Worker {
		return testutil.NewFakeWorker()
	}
	controller := worker.NewController(repo, dispatcher, factory, nil, time.Second)
	h := NewJobHandler(controller)

	engine := gin.New()
	jobs := engine.Group("/api/v1/jobs")
	{
		jobs.POST("", h.Create)
		jobs.GET("", h.List)
		jobs.GET("/:id", h.Get)
		jobs.GET("/:id/files", h.Files)
		jobs.POST("/:id/pause", h.Pause)
		jobs.POST("/:id/resume", h.Resume)
		jobs.POST("/:id/cancel", h.Cancel)
		jobs.DELETE("/:id", h.Delete)
	}

	return &jobTestEnv{engine: engine, repo: repo}
}

func (e *jobTestEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func projectDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package x\n"), 0o644))
	}
	return dir
}

func TestJobHandler_Create(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go", "b.go")

	background := false
	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"project_name":   "myproject",
		"background":     background,
	})

	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	jobID := data["job_id"].(string)
	require.NotEmpty(t, jobID)

	job, err := env.repo.GetByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, job.Status)
	assert.Equal(t, 2, job.IndexedFiles)
}

func TestJobHandler_Create_DefaultsProjectName(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go")

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"background":     false,
	})
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	job, err := env.repo.GetByID(data["job_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), job.ProjectName)
}

func TestJobHandler_Create_MissingDirectory(t *testing.T) {
	env := setupJobEnv(t)

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": "/no/such/dir",
	})
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestJobHandler_Create_MissingField(t *testing.T) {
	env := setupJobEnv(t)

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"project_name": "p",
	})
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestJobHandler_Get(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go")

	_, created := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"background":     false,
	})
	jobID := created.Data.(map[string]interface{})["job_id"].(string)

	_, resp := env.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	require.Equal(t, response.CodeSuccess, resp.Code)

	job := resp.Data.(map[string]interface{})
	assert.Equal(t, jobID, job["id"])
	assert.Equal(t, model.StatusCompleted, job["status"])
}

func TestJobHandler_Get_NotFound(t *testing.T) {
	env := setupJobEnv(t)

	_, resp := env.do(t, http.MethodGet, "/api/v1/jobs/no-such-job", nil)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestJobHandler_Files(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go", "b.go")

	_, created := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"background":     false,
	})
	jobID := created.Data.(map[string]interface{})["job_id"].(string)

	_, resp := env.do(t, http.MethodGet, "/api/v1/jobs/"+jobID+"/files", nil)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
}

func TestJobHandler_List(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go")

	env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"project_name":   "alpha",
		"background":     false,
	})
	env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"project_name":   "beta",
		"background":     false,
	})

	_, resp := env.do(t, http.MethodGet, "/api/v1/jobs?project_name=alpha", nil)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestJobHandler_List_InvalidLimit(t *testing.T) {
	env := setupJobEnv(t)

	_, resp := env.do(t, http.MethodGet, "/api/v1/jobs?limit=abc", nil)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestJobHandler_Pause_NotRunning(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go")

	_, created := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"background":     false,
	})
	jobID := created.Data.(map[string]interface{})["job_id"].(string)

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs/"+jobID+"/pause", nil)
	assert.Equal(t, response.CodeConflict, resp.Code)
}

func TestJobHandler_Pause_NotFound(t *testing.T) {
	env := setupJobEnv(t)

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs/no-such-job/pause", nil)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestJobHandler_Resume_NotPaused(t *testing.T) {
	env := setupJobEnv(t)
	dir := projectDir(t, "a.go")

	_, created := env.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"directory_path": dir,
		"background":     false,
	})
	jobID := created.Data.(map[string]interface{})["job_id"].(string)

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs/"+jobID+"/resume", nil)
	assert.Equal(t, response.CodeConflict, resp.Code)
}

func TestJobHandler_CancelAndDelete(t *testing.T) {
	env := setupJobEnv(t)

	// A queued job that never got scheduled (created directly).
	job, err := env.repo.Create("p", "/tmp/x", true)
	require.NoError(t, err)

	_, resp := env.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID+"/cancel", nil)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, model.StatusCancelled, statusOf(t, env, job.ID))

	_, resp = env.do(t, http.MethodDelete, "/api/v1/jobs/"+job.ID, nil)
	require.Equal(t, response.CodeSuccess, resp.Code)

	_, resp = env.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID, nil)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestJobHandler_Delete_ActiveRefused(t *testing.T) {
	env := setupJobEnv(t)

	job, err := env.repo.Create("p", "/tmp/x", true)
	require.NoError(t, err)

	_, resp := env.do(t, http.MethodDelete, "/api/v1/jobs/"+job.ID, nil)
	assert.Equal(t, response.CodeConflict, resp.Code)
}

func statusOf(t *testing.T, env *jobTestEnv, id string) string {
	t.Helper()
	job, err := env.repo.GetByID(id)
	require.NoError(t, err)
	return job.Status
}
