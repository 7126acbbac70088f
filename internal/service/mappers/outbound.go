package mappers

import (
	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/store/model"
)

func CustomerToApi(c model.Customer) api.Customer {
	return api.Customer{
		Id:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		OrgId:               c.OrgID,
		Status:              c.Status,
		BillingTier:         c.BillingTier,
		ServiceAccountEmail: c.ServiceAccountEmail,
		Usage: api.Usage{
			JobsTotal:    c.JobsTotal,
			StorageBytes: c.StorageBytes,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func CustomerListToApi(customers model.CustomerList) api.CustomerList {
	customerList := make([]api.Customer, 0, len(customers))
	for _, c := range customers {
		customerList = append(customerList, CustomerToApi(c))
	}
	return customerList
}

func ProjectToApi(p model.Project) api.Project {
	project := api.Project{
		Id:            p.ID,
		Name:          p.Name,
		OrgId:         p.OrgID,
		Description:   p.Description,
		Status:        p.Status,
		StorageBucket: p.StorageBucket,
		StorageRegion: p.StorageRegion,
		Members:       make([]api.ProjectMember, 0, len(p.Members)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}

	if p.Settings != nil {
		project.Settings = &api.ProjectSettings{
			RetentionDays:     p.Settings.Data.RetentionDays,
			StorageQuotaBytes: p.Settings.Data.StorageQuotaBytes,
		}
	}

	for _, m := range p.Members {
		project.Members = append(project.Members, api.ProjectMember{
			Username: m.Username,
			Role:     m.Role,
		})
	}

	return project
}

func ProjectListToApi(projects model.ProjectList) api.ProjectList {
	projectList := make([]api.Project, 0, len(projects))
	for _, p := range projects {
		projectList = append(projectList, ProjectToApi(p))
	}
	return projectList
}

func JobToApi(j model.Job) api.Job {
	job := api.Job{
		Id:              j.ID,
		ProjectId:       j.ProjectID,
		Type:            j.Type,
		Status:          string(j.Status),
		StatusInfo:      j.StatusInfo,
		ResultDatasetId: j.ResultDatasetID,
		CreatedAt:       j.CreatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}

	if j.Config != nil {
		job.Config = j.Config.Data
	}

	return job
}

func JobListToApi(jobs model.JobList) api.JobList {
	jobList := make([]api.Job, 0, len(jobs))
	for _, j := range jobs {
		jobList = append(jobList, JobToApi(j))
	}
	return jobList
}

func DatasetToApi(d model.Dataset) api.Dataset {
	return api.Dataset{
		Id:        d.ID,
		ProjectId: d.ProjectID,
		JobId:     d.JobID,
		Format:    d.Format,
		SizeBytes: d.SizeBytes,
		Checksum:  d.Checksum,
		CreatedAt: d.CreatedAt,
	}
}

func DatasetListToApi(datasets model.DatasetList) api.DatasetList {
	datasetList := make([]api.Dataset, 0, len(datasets))
	for _, d := range datasets {
		datasetList = append(datasetList, DatasetToApi(d))
	}
	return datasetList
}

func StatisticsToApi(s model.PlatformStats) api.PlatformStatistics {
	return api.PlatformStatistics{
		Customers:    s.Customers,
		Projects:     s.Projects,
		Datasets:     s.Datasets,
		JobsByStatus: s.JobsByStatus,
	}
}
