package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Dataset is a generated artifact produced by a completed job and stored in
// the project's bucket.
type Dataset struct {
	ID        uuid.UUID `gorm:"primaryKey;"`
	CreatedAt time.Time `gorm:"not null"`
	ProjectID uuid.UUID `gorm:"not null;index:datasets_project_id_idx"`
	JobID     uuid.UUID `gorm:"not null;index:datasets_job_id_idx"`
	OrgID     string    `gorm:"not null;index:datasets_org_id_idx"`
	ObjectKey string    `gorm:"not null"`
	Format    string    `gorm:"not null"`
	SizeBytes int64     `gorm:"not null;default:0"`
	Checksum  string
}

type DatasetList []Dataset

func (d Dataset) String() string {
	val, _ := json.Marshal(d)
	return string(val)
}

func NewDatasetFromID(id uuid.UUID) *Dataset {
	return &Dataset{ID: id}
}
