package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrCustomerNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "customer")
}

func NewErrProjectNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "project")
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrDatasetNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "dataset")
}

type ErrResourceForbidden struct {
	error
}

func NewErrResourceForbidden(id uuid.UUID, resourceType string) *ErrResourceForbidden {
	return &ErrResourceForbidden{fmt.Errorf("forbidden to access %s %s", resourceType, id)}
}

type ErrDuplicateResource struct {
	error
}

func NewErrDuplicateProject(name string) *ErrDuplicateResource {
	return &ErrDuplicateResource{fmt.Errorf("a project named %q already exists in this organization", name)}
}

func NewErrDuplicateCustomer(orgID string) *ErrDuplicateResource {
	return &ErrDuplicateResource{fmt.Errorf("a customer is already registered for organization %q", orgID)}
}

// ErrInvalidJobTransition covers conflicting lifecycle requests, like
// cancelling a job that already reached a terminal status.
type ErrInvalidJobTransition struct {
	error
}

func NewErrJobAlreadyFinal(id uuid.UUID, status string) *ErrInvalidJobTransition {
	return &ErrInvalidJobTransition{fmt.Errorf("job %s already reached final status %q", id, status)}
}

type ErrProjectArchived struct {
	error
}

func NewErrProjectArchived(id uuid.UUID) *ErrProjectArchived {
	return &ErrProjectArchived{fmt.Errorf("project %s is archived", id)}
}

type ErrCustomerSuspended struct {
	error
}

func NewErrCustomerSuspended(orgID string) *ErrCustomerSuspended {
	return &ErrCustomerSuspended{fmt.Errorf("customer of organization %q is suspended", orgID)}
}

type ErrQuotaExceeded struct {
	error
}

func NewErrStorageQuotaExceeded(id uuid.UUID) *ErrQuotaExceeded {
	return &ErrQuotaExceeded{fmt.Errorf("storage quota of project %s is exhausted", id)}
}

// ErrDatasetRetained is returned when a delete lands inside the project's
// retention window.
type ErrDatasetRetained struct {
	error
}

func NewErrDatasetRetained(id uuid.UUID, until time.Time) *ErrDatasetRetained {
	return &ErrDatasetRetained{fmt.Errorf("dataset %s is retained until %s", id, until.Format(time.RFC3339))}
}
