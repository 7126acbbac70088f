package pipeline

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

// StatusApplier folds a pipeline status into the job lifecycle. Implemented
// by the job service.
type StatusApplier interface {
	ApplyPipelineStatus(ctx context.Context, job model.Job, status JobStatus) error
}

// Poller periodically asks the pipeline about every job that has been handed
// over and is not done yet. The tick is jittered so several replicas do not
// hammer the pipeline in lockstep.
type Poller struct {
	client   Client
	store    store.Store
	applier  StatusApplier
	interval time.Duration
}

func NewPoller(client Client, s store.Store, applier StatusApplier, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		store:    s,
		applier:  applier,
		interval: interval,
	}
}

func (p *Poller) Run(ctx context.Context) {
	logger := zap.S().Named("pipeline_poller")
	logger.Infow("pipeline poller started", "interval", p.interval)

	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: 100 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("pipeline poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	logger := zap.S().Named("pipeline_poller")

	jobs, err := p.store.Job().List(
		ctx,
		store.NewJobQueryFilter().
			ByStatus(model.JobStatusQueued, model.JobStatusRunning).
			WithPipelineReference(),
		store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTime),
	)
	if err != nil {
		logger.Errorw("failed to list jobs waiting on the pipeline", "error", err)
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}

		status, err := p.client.Status(ctx, *job.PipelineJobID)
		if err != nil {
			logger.Errorw("failed to poll pipeline job", "job_id", job.ID, "pipeline_job_id", *job.PipelineJobID, "error", err)
			continue
		}

		if err := p.applier.ApplyPipelineStatus(ctx, job, *status); err != nil {
			logger.Errorw("failed to apply pipeline status", "job_id", job.ID, "state", status.State, "error", err)
		}
	}
}
