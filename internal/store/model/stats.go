package model

// PlatformStats holds the totals exposed on the admin statistics endpoint and
// the prometheus stats collector.
type PlatformStats struct {
	Customers    int64            `json:"customers"`
	Projects     int64            `json:"projects"`
	Datasets     int64            `json:"datasets"`
	JobsByStatus map[string]int64 `json:"jobs_by_status"`
}
