// Package v1alpha1 holds the wire types of the public REST api.
package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	Id                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	OrgId               string     `json:"org_id"`
	Status              string     `json:"status"`
	BillingTier         string     `json:"billing_tier"`
	ServiceAccountEmail string     `json:"service_account_email,omitempty"`
	Usage               Usage      `json:"usage"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

type Usage struct {
	JobsTotal    int64 `json:"jobs_total"`
	StorageBytes int64 `json:"storage_bytes"`
}

type CustomerList []Customer

type CustomerCreate struct {
	Name        string `json:"name" validate:"required,resource_name,min=1,max=100"`
	Email       string `json:"email" validate:"required,email"`
	OrgId       string `json:"org_id" validate:"required,min=1,max=100"`
	BillingTier string `json:"billing_tier" validate:"omitempty,oneof=free pro enterprise"`
}

type CustomerUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	BillingTier *string `json:"billing_tier,omitempty" validate:"omitempty,oneof=free pro enterprise"`
}

type ProjectSettings struct {
	RetentionDays     int   `json:"retention_days" validate:"gte=0,lte=3650"`
	StorageQuotaBytes int64 `json:"storage_quota_bytes" validate:"gte=0"`
}

type ProjectMember struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Project struct {
	Id            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	OrgId         string           `json:"org_id"`
	Description   string           `json:"description,omitempty"`
	Status        string           `json:"status"`
	Settings      *ProjectSettings `json:"settings,omitempty"`
	StorageBucket string           `json:"storage_bucket,omitempty"`
	StorageRegion string           `json:"storage_region,omitempty"`
	Members       []ProjectMember  `json:"members"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}

type ProjectList []Project

type ProjectCreate struct {
	Name        string           `json:"name" validate:"required,resource_name,min=1,max=100"`
	Description string           `json:"description" validate:"max=500"`
	Settings    *ProjectSettings `json:"settings,omitempty"`
}

type ProjectUpdate struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,resource_name,min=1,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Settings    *ProjectSettings `json:"settings,omitempty"`
}

type ProjectMemberAdd struct {
	Username string `json:"username" validate:"required,min=1,max=256"`
	Role     string `json:"role" validate:"required,oneof=owner editor viewer"`
}

type Job struct {
	Id              uuid.UUID      `json:"id"`
	ProjectId       uuid.UUID      `json:"project_id"`
	Type            string         `json:"type"`
	Config          map[string]any `json:"config,omitempty"`
	Status          string         `json:"status"`
	StatusInfo      string         `json:"status_info,omitempty"`
	ResultDatasetId *uuid.UUID     `json:"result_dataset_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

type JobList []Job

type JobCreate struct {
	Type   string         `json:"type" validate:"required,oneof=tabular timeseries text image"`
	Config map[string]any `json:"config,omitempty"`
}

type Dataset struct {
	Id        uuid.UUID `json:"id"`
	ProjectId uuid.UUID `json:"project_id"`
	JobId     uuid.UUID `json:"job_id"`
	Format    string    `json:"format"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DatasetList []Dataset

type DatasetDownloadURL struct {
	Url       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChatRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=4000"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ServiceAccountKey struct {
	KeyId string `json:"key_id"`
	// PrivateKeyData is returned exactly once, at rotation time.
	PrivateKeyData string `json:"private_key_data"`
}

type PlatformStatistics struct {
	Customers    int64            `json:"customers"`
	Projects     int64            `json:"projects"`
	Datasets     int64            `json:"datasets"`
	JobsByStatus map[string]int64 `json:"jobs_by_status"`
}

type Event struct {
	Data map[string]string `json:"data" validate:"required"`
}

type VersionInfo struct {
	Version string `json:"version"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"request_id,omitempty"`
}
