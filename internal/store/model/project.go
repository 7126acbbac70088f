package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project statuses. Projects are archived rather than hard-deleted.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type ProjectSettings struct {
	RetentionDays     int   `json:"retention_days"`
	StorageQuotaBytes int64 `json:"storage_quota_bytes"`
}

type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"primaryKey;"`
	Username  string    `gorm:"primaryKey;type:VARCHAR;size:256"`
	Role      string    `gorm:"not null"`
}

type Project struct {
	ID          uuid.UUID `gorm:"primaryKey;"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   *time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	Name        string         `gorm:"uniqueIndex:projects_org_id_name;not null"`
	OrgID       string         `gorm:"uniqueIndex:projects_org_id_name;index:projects_org_id_idx;not null"`
	Description string
	Status      string                      `gorm:"not null;default:active"`
	Settings    *JSONField[ProjectSettings] `gorm:"type:jsonb"`

	// Object storage backing the project's generated datasets.
	StorageBucket string
	StorageRegion string

	Members  []ProjectMember `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE;"`
	Jobs     []Job           `gorm:"constraint:OnDelete:CASCADE;"`
	Datasets []Dataset       `gorm:"constraint:OnDelete:CASCADE;"`
}

type ProjectList []Project

func (p Project) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}

func NewProjectFromID(id uuid.UUID) *Project {
	return &Project{ID: id}
}
