package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/pipeline"
	"github.com/synthetica/platform/internal/service/mappers"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
	"github.com/synthetica/platform/pkg/metrics"
)

type JobService struct {
	store       store.Store
	pipeline    pipeline.Client
	eventWriter *events.EventProducer
}

var _ pipeline.StatusApplier = (*JobService)(nil)

func NewJobService(store store.Store, pipelineClient pipeline.Client, ew *events.EventProducer) *JobService {
	return &JobService{
		store:       store,
		pipeline:    pipelineClient,
		eventWriter: ew,
	}
}

func (s *JobService) ListJobs(ctx context.Context, user auth.User, projectID uuid.UUID, opts *store.JobQueryOptions) (model.JobList, error) {
	// the project lookup doubles as the org check
	project, err := s.store.Project().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectID)
		}
		return nil, err
	}
	if project.OrgID != user.Organization {
		return nil, NewErrResourceForbidden(projectID, "project")
	}

	return s.store.Job().List(ctx, store.NewJobQueryFilter().ByProjectID(projectID), opts)
}

func (s *JobService) GetJob(ctx context.Context, user auth.User, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	if job.OrgID != user.Organization {
		return nil, NewErrResourceForbidden(id, "job")
	}

	return job, nil
}

// CreateJob persists the job and hands it over to the generation pipeline.
// The job leaves this method queued, or failed if the hand-over did not work.
func (s *JobService) CreateJob(ctx context.Context, user auth.User, projectID uuid.UUID, form api.JobCreate) (*model.Job, error) {
	project, err := s.store.Project().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectID)
		}
		return nil, err
	}
	if project.OrgID != user.Organization {
		return nil, NewErrResourceForbidden(projectID, "project")
	}
	if project.Status == model.ProjectStatusArchived {
		return nil, NewErrProjectArchived(projectID)
	}

	customer, err := activeCustomerByOrg(ctx, s.store, user.Organization)
	if err != nil {
		return nil, err
	}

	if project.Settings != nil && project.Settings.Data.StorageQuotaBytes > 0 {
		used, err := s.store.Dataset().SumSizeByProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if used >= project.Settings.Data.StorageQuotaBytes {
			return nil, NewErrStorageQuotaExceeded(projectID)
		}
	}

	job, err := s.store.Job().Create(ctx, mappers.JobFromApi(uuid.New(), projectID, user, &form))
	if err != nil {
		return nil, err
	}

	submitReq := pipeline.SubmitRequest{
		JobID:     job.ID.String(),
		ProjectID: projectID.String(),
		Type:      job.Type,
	}
	if job.Config != nil {
		submitReq.Config = job.Config.Data
	}

	resp, err := s.pipeline.Submit(ctx, submitReq)
	if err != nil {
		job = s.markFailed(ctx, job, "failed to submit job to the generation pipeline")
		return job, nil
	}

	if job, err = s.store.Job().SetPipelineReference(ctx, job.ID, resp.PipelineJobID); err != nil {
		return nil, err
	}

	job, err = s.transition(ctx, job, model.JobStatusQueued, "")
	if err != nil {
		return nil, err
	}

	metrics.IncreaseJobsSubmittedTotalMetric(job.Type)
	if customer != nil {
		if err := s.store.Customer().IncrementUsage(ctx, customer.ID, 1, 0); err != nil {
			zap.S().Named("job_service").Errorw("failed to update usage counters", "error", err, "customer_id", customer.ID)
		}
	}

	return job, nil
}

// CancelJob asks the pipeline to stop the job and marks it cancelled. Jobs
// that already reached a final status cannot be cancelled again.
func (s *JobService) CancelJob(ctx context.Context, user auth.User, id uuid.UUID) (*model.Job, error) {
	job, err := s.GetJob(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if job.Status.IsTerminal() {
		return nil, NewErrJobAlreadyFinal(id, string(job.Status))
	}

	if job.PipelineJobID != nil {
		if err := s.pipeline.Cancel(ctx, *job.PipelineJobID); err != nil {
			zap.S().Named("job_service").Errorw("failed to cancel pipeline job", "error", err, "job_id", id, "pipeline_job_id", *job.PipelineJobID)
		}
	}

	job, err = s.transition(ctx, job, model.JobStatusCancelled, "cancelled by user")
	if err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			// lost the race against the poller
			refreshed, getErr := s.store.Job().Get(ctx, id)
			if getErr == nil && refreshed.Status.IsTerminal() {
				return nil, NewErrJobAlreadyFinal(id, string(refreshed.Status))
			}
		}
		return nil, err
	}

	metrics.IncreaseJobsCancelledTotalMetric(job.Type)

	return job, nil
}

// ApplyPipelineStatus folds the state reported by the pipeline into the job
// lifecycle. Stale or backwards reports are dropped.
func (s *JobService) ApplyPipelineStatus(ctx context.Context, job model.Job, status pipeline.JobStatus) error {
	target, ok := jobStatusFromPipelineState(status.State)
	if !ok || target == job.Status {
		return nil
	}

	// a poll can miss the running report entirely
	if target == model.JobStatusCompleted && job.Status == model.JobStatusQueued {
		updated, err := s.transition(ctx, &job, model.JobStatusRunning, "")
		if err != nil {
			if errors.Is(err, store.ErrStaleStatus) {
				return nil
			}
			return err
		}
		job = *updated
	}

	if !job.Status.CanTransition(target) {
		// the pipeline reports an older state than the one recorded
		return nil
	}

	if target == model.JobStatusCompleted && status.Result != nil {
		return s.completeJob(ctx, job, status)
	}

	_, err := s.transition(ctx, &job, target, status.Message)
	if errors.Is(err, store.ErrStaleStatus) {
		return nil
	}
	return err
}

// completeJob records the produced dataset and finishes the job in one
// transaction.
func (s *JobService) completeJob(ctx context.Context, job model.Job, status pipeline.JobStatus) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	dataset, err := s.store.Dataset().Create(ctx, model.Dataset{
		ID:        uuid.New(),
		ProjectID: job.ProjectID,
		JobID:     job.ID,
		OrgID:     job.OrgID,
		ObjectKey: status.Result.ObjectKey,
		Format:    status.Result.Format,
		SizeBytes: status.Result.SizeBytes,
		Checksum:  status.Result.Checksum,
	})
	if err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	job.ResultDatasetID = &dataset.ID

	if _, err := s.transition(ctx, &job, model.JobStatusCompleted, status.Message); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrStaleStatus) {
			return nil
		}
		return err
	}

	customer, err := s.store.Customer().GetByOrgID(ctx, job.OrgID)
	if err == nil {
		if err := s.store.Customer().IncrementUsage(ctx, customer.ID, 0, dataset.SizeBytes); err != nil {
			_, _ = store.Rollback(ctx)
			return err
		}
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	return nil
}

// transition validates and persists a status change, guarding against
// concurrent updates, then emits the lifecycle event.
func (s *JobService) transition(ctx context.Context, job *model.Job, target model.JobStatus, statusInfo string) (*model.Job, error) {
	from := job.Status
	if err := job.Transition(target, time.Now()); err != nil {
		return nil, err
	}
	if statusInfo != "" {
		job.StatusInfo = statusInfo
	}

	updated, err := s.store.Job().UpdateStatusFrom(ctx, job, from)
	if err != nil {
		return nil, err
	}

	s.emitJobEvent(ctx, *updated)

	return updated, nil
}

func (s *JobService) markFailed(ctx context.Context, job *model.Job, statusInfo string) *model.Job {
	failed, err := s.transition(ctx, job, model.JobStatusFailed, statusInfo)
	if err != nil {
		zap.S().Named("job_service").Errorw("failed to mark job failed", "error", err, "job_id", job.ID)
		return job
	}
	return failed
}

func (s *JobService) emitJobEvent(ctx context.Context, job model.Job) {
	if s.eventWriter == nil {
		return
	}

	data, err := json.Marshal(events.JobEvent{
		JobID:      job.ID.String(),
		ProjectID:  job.ProjectID.String(),
		OrgID:      job.OrgID,
		Status:     string(job.Status),
		StatusInfo: job.StatusInfo,
	})
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, events.JobMessageKind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("job_service").Errorw("failed to write event", "error", err, "event_kind", events.JobMessageKind)
	}
}

func jobStatusFromPipelineState(state string) (model.JobStatus, bool) {
	switch state {
	case pipeline.StatePending:
		return model.JobStatusQueued, true
	case pipeline.StateRunning:
		return model.JobStatusRunning, true
	case pipeline.StateSucceeded:
		return model.JobStatusCompleted, true
	case pipeline.StateFailed:
		return model.JobStatusFailed, true
	case pipeline.StateCancelled:
		return model.JobStatusCancelled, true
	default:
		return "", false
	}
}
