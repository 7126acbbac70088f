package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/pipeline"
	"github.com/synthetica/platform/internal/service"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

const (
	insertProjectStm         = "INSERT INTO projects (id, created_at, name, org_id, status) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', '%s');"
	insertCustomerStm        = "INSERT INTO customers (id, created_at, name, email, org_id, status, billing_tier) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', '%s', '%s', 'free');"
	insertJobStm             = "INSERT INTO jobs (id, created_at, project_id, org_id, type, status) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', 'tabular', '%s');"
	insertJobWithPipelineStm = "INSERT INTO jobs (id, created_at, project_id, org_id, type, status, pipeline_job_id) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', 'tabular', '%s', '%s');"
)

type stubPipeline struct {
	lock       sync.Mutex
	submitResp *pipeline.SubmitResponse
	submitErr  error
	statusResp *pipeline.JobStatus
	cancelled  []string
}

func (p *stubPipeline) Submit(ctx context.Context, req pipeline.SubmitRequest) (*pipeline.SubmitResponse, error) {
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	return p.submitResp, nil
}

func (p *stubPipeline) Status(ctx context.Context, pipelineJobID string) (*pipeline.JobStatus, error) {
	return p.statusResp, nil
}

func (p *stubPipeline) Cancel(ctx context.Context, pipelineJobID string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.cancelled = append(p.cancelled, pipelineJobID)
	return nil
}

var _ = Describe("job service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		user   auth.User
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())

		user = auth.User{Username: "batman", Organization: "org-1"}
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM datasets;")
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM projects;")
		gormdb.Exec("DELETE FROM customers;")
	})

	Context("create", func() {
		It("successfully creates a job and hands it to the pipeline", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())

			customerID := uuid.New()
			tx = gormdb.Exec(fmt.Sprintf(insertCustomerStm, customerID, "acme", "ops@acme.io", "org-1", "active"))
			Expect(tx.Error).To(BeNil())

			eventWriter := newTestWriter()
			pl := &stubPipeline{submitResp: &pipeline.SubmitResponse{PipelineJobID: "pl-1"}}
			srv := service.NewJobService(s, pl, events.NewEventProducer(eventWriter))

			job, err := srv.CreateJob(context.TODO(), user, projectID, api.JobCreate{Type: "tabular", Config: map[string]any{"rows": 100}})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusQueued))
			Expect(*job.PipelineJobID).To(Equal("pl-1"))

			// usage counter moved
			customer, err := s.Customer().Get(context.TODO(), customerID)
			Expect(err).To(BeNil())
			Expect(customer.JobsTotal).To(Equal(int64(1)))

			Eventually(eventWriter.Count, "2s").Should(Equal(1))
		})

		It("marks the job failed when the pipeline rejects it", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())

			pl := &stubPipeline{submitErr: errors.New("pipeline gone")}
			srv := service.NewJobService(s, pl, events.NewEventProducer(newTestWriter()))

			job, err := srv.CreateJob(context.TODO(), user, projectID, api.JobCreate{Type: "tabular"})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
		})

		It("refuses to create a job in an archived project", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "archived"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, nil)

			_, err := srv.CreateJob(context.TODO(), user, projectID, api.JobCreate{Type: "tabular"})
			Expect(err).NotTo(BeNil())
			var archivedErr *service.ErrProjectArchived
			Expect(errors.As(err, &archivedErr)).To(BeTrue())
		})

		It("refuses to create a job for a suspended customer", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertCustomerStm, uuid.New(), "acme", "ops@acme.io", "org-1", "suspended"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, nil)

			_, err := srv.CreateJob(context.TODO(), user, projectID, api.JobCreate{Type: "tabular"})
			Expect(err).NotTo(BeNil())
			var suspendedErr *service.ErrCustomerSuspended
			Expect(errors.As(err, &suspendedErr)).To(BeTrue())
		})

		It("refuses to create a job in another org's project", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-2", "active"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, nil)

			_, err := srv.CreateJob(context.TODO(), user, projectID, api.JobCreate{Type: "tabular"})
			Expect(err).NotTo(BeNil())
			var forbiddenErr *service.ErrResourceForbidden
			Expect(errors.As(err, &forbiddenErr)).To(BeTrue())
		})

		It("refuses to create a job when the storage quota is exhausted", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf("INSERT INTO projects (id, created_at, name, org_id, status, settings) VALUES ('%s', CURRENT_TIMESTAMP, 'alpha', 'org-1', 'active', '{\"retention_days\": 30, \"storage_quota_bytes\": 1024}');", projectID))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf("INSERT INTO datasets (id, created_at, project_id, job_id, org_id, object_key, format, size_bytes) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', 'org-1', 'datasets/full.parquet', 'parquet', 2048);", uuid.New(), projectID, uuid.New()))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, nil)

			_, err := srv.CreateJob(context.TODO(), user, projectID, api.JobCreate{Type: "tabular"})
			Expect(err).NotTo(BeNil())
			var quotaErr *service.ErrQuotaExceeded
			Expect(errors.As(err, &quotaErr)).To(BeTrue())
		})
	})

	Context("cancel", func() {
		It("cancels a running job through the pipeline", func() {
			projectID := uuid.New()
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobWithPipelineStm, jobID, projectID, "org-1", "running", "pl-1"))
			Expect(tx.Error).To(BeNil())

			pl := &stubPipeline{}
			srv := service.NewJobService(s, pl, events.NewEventProducer(newTestWriter()))

			job, err := srv.CancelJob(context.TODO(), user, jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCancelled))
			Expect(job.CompletedAt).NotTo(BeNil())
			Expect(pl.cancelled).To(ConsistOf("pl-1"))
		})

		It("refuses to cancel a completed job", func() {
			projectID := uuid.New()
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, projectID, "org-1", "completed"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, nil)

			_, err := srv.CancelJob(context.TODO(), user, jobID)
			Expect(err).NotTo(BeNil())
			var conflictErr *service.ErrInvalidJobTransition
			Expect(errors.As(err, &conflictErr)).To(BeTrue())
		})

		It("failed to cancel job -- not found", func() {
			srv := service.NewJobService(s, &stubPipeline{}, nil)

			_, err := srv.CancelJob(context.TODO(), user, uuid.New())
			Expect(err).NotTo(BeNil())
			var notFoundErr *service.ErrResourceNotFound
			Expect(errors.As(err, &notFoundErr)).To(BeTrue())
		})
	})

	Context("pipeline status", func() {
		It("moves a queued job to running", func() {
			projectID := uuid.New()
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobWithPipelineStm, jobID, projectID, "org-1", "queued", "pl-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, events.NewEventProducer(newTestWriter()))

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())

			err = srv.ApplyPipelineStatus(context.TODO(), *job, pipeline.JobStatus{State: pipeline.StateRunning})
			Expect(err).To(BeNil())

			updated, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusRunning))
			Expect(updated.StartedAt).NotTo(BeNil())
		})

		It("records the dataset when the pipeline succeeds", func() {
			projectID := uuid.New()
			jobID := uuid.New()
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertCustomerStm, customerID, "acme", "ops@acme.io", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobWithPipelineStm, jobID, projectID, "org-1", "running", "pl-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, events.NewEventProducer(newTestWriter()))

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())

			err = srv.ApplyPipelineStatus(context.TODO(), *job, pipeline.JobStatus{
				State: pipeline.StateSucceeded,
				Result: &pipeline.Result{
					ObjectKey: "org-1/result.parquet",
					Format:    "parquet",
					SizeBytes: 4096,
				},
			})
			Expect(err).To(BeNil())

			updated, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusCompleted))
			Expect(updated.ResultDatasetID).NotTo(BeNil())
			Expect(updated.CompletedAt).NotTo(BeNil())

			dataset, err := s.Dataset().Get(context.TODO(), *updated.ResultDatasetID)
			Expect(err).To(BeNil())
			Expect(dataset.SizeBytes).To(Equal(int64(4096)))

			customer, err := s.Customer().Get(context.TODO(), customerID)
			Expect(err).To(BeNil())
			Expect(customer.StorageBytes).To(Equal(int64(4096)))
		})

		It("never downgrades a terminal job", func() {
			projectID := uuid.New()
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobWithPipelineStm, jobID, projectID, "org-1", "completed", "pl-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, nil)

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())

			err = srv.ApplyPipelineStatus(context.TODO(), *job, pipeline.JobStatus{State: pipeline.StateRunning})
			Expect(err).To(BeNil())

			updated, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusCompleted))
		})

		It("steps through running when the pipeline jumps to succeeded", func() {
			projectID := uuid.New()
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobWithPipelineStm, jobID, projectID, "org-1", "queued", "pl-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewJobService(s, &stubPipeline{}, events.NewEventProducer(newTestWriter()))

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())

			err = srv.ApplyPipelineStatus(context.TODO(), *job, pipeline.JobStatus{
				State:  pipeline.StateSucceeded,
				Result: &pipeline.Result{ObjectKey: "org-1/result.csv", Format: "csv", SizeBytes: 1},
			})
			Expect(err).To(BeNil())

			updated, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusCompleted))
			Expect(updated.StartedAt).NotTo(BeNil())
		})
	})
})
