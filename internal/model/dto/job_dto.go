package dto

// CreateJobRequest starts a new indexing job.
type CreateJobRequest struct {
	DirectoryPath string `json:"directory_path" binding:"required"`
	ProjectName   string `json:"project_name"`
	Recursive     *bool  `json:"recursive"`  // default true
	Background    *bool  `json:"background"` // default true
}

// ResumeJobRequest requeues a paused job.
type ResumeJobRequest struct {
	Background *bool `json:"background"` // default true
}

// TokenRequest exchanges the service API key for a JWT.
type TokenRequest struct {
	APIKey  string `json:"api_key" binding:"required"`
	Subject string `json:"subject"`
}
