package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Customer statuses. A customer is never hard-deleted, suspension takes its
// projects out of service instead.
const (
	CustomerStatusActive    = "active"
	CustomerStatusSuspended = "suspended"
)

// Billing tiers.
const (
	BillingTierFree       = "free"
	BillingTierPro        = "pro"
	BillingTierEnterprise = "enterprise"
)

type Customer struct {
	ID          uuid.UUID `gorm:"primaryKey;"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   *time.Time
	Name        string `gorm:"not null"`
	Email       string `gorm:"uniqueIndex;not null"`
	OrgID       string `gorm:"uniqueIndex;not null"`
	Status      string `gorm:"not null;default:active"`
	BillingTier string `gorm:"not null;default:free"`

	// Provisioned cloud identity scoping this customer's resources.
	ServiceAccountEmail string
	ServiceAccountKeyID string

	// Usage counters, updated by the job and dataset services.
	JobsTotal    int64 `gorm:"not null;default:0"`
	StorageBytes int64 `gorm:"not null;default:0"`
}

type CustomerList []Customer

func (c Customer) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

func NewCustomerFromID(id uuid.UUID) *Customer {
	return &Customer{ID: id}
}
