package events

// JobEvent is emitted every time a job changes status.
type JobEvent struct {
	JobID      string `json:"job_id"`
	ProjectID  string `json:"project_id"`
	OrgID      string `json:"org_id"`
	Status     string `json:"status"`
	StatusInfo string `json:"status_info,omitempty"`
}

// CustomerEvent is emitted on customer registration and status changes.
type CustomerEvent struct {
	CustomerID string `json:"customer_id"`
	OrgID      string `json:"org_id"`
	Status     string `json:"status"`
}

// UIEvent carries usage telemetry pushed by the console.
type UIEvent struct {
	Data map[string]string `json:"data"`
}
