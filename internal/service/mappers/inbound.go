package mappers

import (
	"github.com/google/uuid"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/store/model"
)

func CustomerFromApi(id uuid.UUID, resource *api.CustomerCreate) model.Customer {
	customer := model.Customer{
		ID:          id,
		Name:        resource.Name,
		Email:       resource.Email,
		OrgID:       resource.OrgId,
		Status:      model.CustomerStatusActive,
		BillingTier: model.BillingTierFree,
	}

	if resource.BillingTier != "" {
		customer.BillingTier = resource.BillingTier
	}

	return customer
}

func UpdateCustomerFromApi(m *model.Customer, resource *api.CustomerUpdate) *model.Customer {
	if resource.Name != nil {
		m.Name = *resource.Name
	}
	if resource.BillingTier != nil {
		m.BillingTier = *resource.BillingTier
	}
	return m
}

func ProjectFromApi(id uuid.UUID, user auth.User, resource *api.ProjectCreate) model.Project {
	project := model.Project{
		ID:          id,
		Name:        resource.Name,
		OrgID:       user.Organization,
		Description: resource.Description,
		Status:      model.ProjectStatusActive,
	}

	if resource.Settings != nil {
		project.Settings = model.MakeJSONField(model.ProjectSettings{
			RetentionDays:     resource.Settings.RetentionDays,
			StorageQuotaBytes: resource.Settings.StorageQuotaBytes,
		})
	}

	return project
}

func UpdateProjectFromApi(m *model.Project, resource *api.ProjectUpdate) *model.Project {
	if resource.Name != nil {
		m.Name = *resource.Name
	}
	if resource.Description != nil {
		m.Description = *resource.Description
	}
	if resource.Settings != nil {
		m.Settings = model.MakeJSONField(model.ProjectSettings{
			RetentionDays:     resource.Settings.RetentionDays,
			StorageQuotaBytes: resource.Settings.StorageQuotaBytes,
		})
	}
	return m
}

func ProjectMemberFromApi(projectID uuid.UUID, resource *api.ProjectMemberAdd) model.ProjectMember {
	return model.ProjectMember{
		ProjectID: projectID,
		Username:  resource.Username,
		Role:      resource.Role,
	}
}

func JobFromApi(id uuid.UUID, projectID uuid.UUID, user auth.User, resource *api.JobCreate) model.Job {
	job := model.Job{
		ID:        id,
		ProjectID: projectID,
		OrgID:     user.Organization,
		Username:  user.Username,
		Type:      resource.Type,
		Status:    model.JobStatusPending,
	}

	if resource.Config != nil {
		job.Config = model.MakeJSONField(resource.Config)
	}

	return job
}

func UIEventFromApi(apiEvent api.Event) events.UIEvent {
	uiEvent := events.UIEvent{
		Data: make(map[string]string),
	}
	for k, v := range apiEvent.Data {
		uiEvent.Data[k] = v
	}
	return uiEvent
}
