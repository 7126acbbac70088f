package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/synthetica/platform/internal/store/model"
)

type Job interface {
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	SetPipelineReference(ctx context.Context, id uuid.UUID, pipelineJobID string) (*model.Job, error)
	UpdateStatusFrom(ctx context.Context, job *model.Job, from model.JobStatus) (*model.Job, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	InitialMigration() error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration() error {
	return s.getDB(context.Background()).AutoMigrate(&model.Job{})
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Find(&jobs); result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&job)
	if result.Error != nil {
		return nil, result.Error
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job := model.NewJobFromID(id)
	result := s.getDB(ctx).First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return job, nil
}

func (s *JobStore) SetPipelineReference(ctx context.Context, id uuid.UUID, pipelineJobID string) (*model.Job, error) {
	job := model.NewJobFromID(id)
	result := s.getDB(ctx).Model(job).Clauses(clause.Returning{}).Update("pipeline_job_id", pipelineJobID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return job, nil
}

// UpdateStatusFrom persists a status transition already validated by the
// model's state machine. The write is guarded by the status the caller read,
// so a job moved to a terminal status by a concurrent writer stays terminal.
func (s *JobStore) UpdateStatusFrom(ctx context.Context, job *model.Job, from model.JobStatus) (*model.Job, error) {
	updates := map[string]interface{}{
		"status":      job.Status,
		"status_info": job.StatusInfo,
	}
	if job.StartedAt != nil {
		updates["started_at"] = job.StartedAt
	}
	if job.CompletedAt != nil {
		updates["completed_at"] = job.CompletedAt
	}
	if job.ResultDatasetID != nil {
		updates["result_dataset_id"] = job.ResultDatasetID
	}

	result := s.getDB(ctx).Model(&model.Job{}).
		Where("id = ? AND status = ?", job.ID, from).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// either the job vanished or someone else transitioned it first
		if _, err := s.Get(ctx, job.ID); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}

	return s.Get(ctx, job.ID)
}

func (s *JobStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row

	result := s.getDB(ctx).Model(&model.Job{}).
		Select("status, count(*) as total").
		Group("status").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
