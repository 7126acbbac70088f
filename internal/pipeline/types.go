package pipeline

// States reported by the generation pipeline. They are mapped onto the job
// lifecycle by the job service, never stored as-is.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

type SubmitRequest struct {
	JobID     string         `json:"job_id"`
	ProjectID string         `json:"project_id"`
	Type      string         `json:"type"`
	Config    map[string]any `json:"config,omitempty"`
}

type SubmitResponse struct {
	PipelineJobID string `json:"pipeline_job_id"`
}

// Result describes the artifact produced by a succeeded pipeline job.
type Result struct {
	ObjectKey string `json:"object_key"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum,omitempty"`
}

type JobStatus struct {
	PipelineJobID string  `json:"pipeline_job_id"`
	State         string  `json:"state"`
	Message       string  `json:"message,omitempty"`
	Result        *Result `json:"result,omitempty"`
}
