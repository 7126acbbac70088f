package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/service"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

type fakeObjectStore struct {
	lock    sync.Mutex
	buckets []string
}

func (f *fakeObjectStore) EnsureBucket(ctx context.Context, bucket string, region string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.buckets = append(f.buckets, bucket)
	return nil
}

func (f *fakeObjectStore) Put(ctx context.Context, bucket string, key string, body io.Reader, size int64) error {
	return nil
}

func (f *fakeObjectStore) Stat(ctx context.Context, bucket string, key string) (int64, error) {
	return 0, nil
}

func (f *fakeObjectStore) PresignedGetURL(ctx context.Context, bucket string, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s/%s", bucket, key), nil
}

func (f *fakeObjectStore) Remove(ctx context.Context, bucket string, key string) error {
	return nil
}

var _ = Describe("project service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		cfg    *config.Config
		user   auth.User
	)

	BeforeAll(func() {
		cfg = config.NewDefault()

		db, err := store.InitDB(cfg)
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
		gormdb.Exec("DELETE FROM project_members;")
		gormdb.Exec("DELETE FROM projects;")
		gormdb.Exec("DELETE FROM customers;")
	})

	Context("create", func() {
		It("creates a project with a bucket and the creator as owner", func() {
			objectStore := &fakeObjectStore{}
			srv := service.NewProjectService(s, objectStore, cfg)

			project, err := srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).To(BeNil())
			Expect(project.OrgID).To(Equal("org-1"))
			Expect(project.StorageBucket).NotTo(BeEmpty())
			Expect(objectStore.buckets).To(ConsistOf(project.StorageBucket))
			Expect(project.Members).To(HaveLen(1))
			Expect(project.Members[0].Role).To(Equal(model.RoleOwner))
		})

		It("refuses to create a project for a suspended customer", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertCustomerStm, uuid.New(), "acme", "ops@acme.io", "org-1", "suspended"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewProjectService(s, &fakeObjectStore{}, cfg)

			_, err := srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).NotTo(BeNil())
			var suspendedErr *service.ErrCustomerSuspended
			Expect(errors.As(err, &suspendedErr)).To(BeTrue())
		})

		It("refuses a duplicated name inside the org", func() {
			srv := service.NewProjectService(s, &fakeObjectStore{}, cfg)

			_, err := srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).To(BeNil())

			_, err = srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).NotTo(BeNil())
			var dupErr *service.ErrDuplicateResource
			Expect(errors.As(err, &dupErr)).To(BeTrue())
		})
	})

	Context("archive", func() {
		It("archives a project and refuses further updates", func() {
			srv := service.NewProjectService(s, &fakeObjectStore{}, cfg)

			project, err := srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).To(BeNil())

			archived, err := srv.ArchiveProject(context.TODO(), user, project.ID)
			Expect(err).To(BeNil())
			Expect(archived.Status).To(Equal(model.ProjectStatusArchived))

			name := "beta"
			_, err = srv.UpdateProject(context.TODO(), user, project.ID, api.ProjectUpdate{Name: &name})
			Expect(err).NotTo(BeNil())
			var archivedErr *service.ErrProjectArchived
			Expect(errors.As(err, &archivedErr)).To(BeTrue())
		})
	})

	Context("members", func() {
		It("adds and removes a member", func() {
			srv := service.NewProjectService(s, &fakeObjectStore{}, cfg)

			project, err := srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).To(BeNil())

			updated, err := srv.AddProjectMember(context.TODO(), user, project.ID, api.ProjectMemberAdd{Username: "robin", Role: "viewer"})
			Expect(err).To(BeNil())
			Expect(updated.Members).To(HaveLen(2))

			Expect(srv.RemoveProjectMember(context.TODO(), user, project.ID, "robin")).To(Succeed())

			final, err := srv.GetProject(context.TODO(), user, project.ID)
			Expect(err).To(BeNil())
			Expect(final.Members).To(HaveLen(1))
		})
	})

	Context("get", func() {
		It("hides other orgs' projects", func() {
			srv := service.NewProjectService(s, &fakeObjectStore{}, cfg)

			project, err := srv.CreateProject(context.TODO(), user, api.ProjectCreate{Name: "alpha"})
			Expect(err).To(BeNil())

			stranger := auth.User{Username: "joker", Organization: "org-2"}
			_, err = srv.GetProject(context.TODO(), stranger, project.ID)
			Expect(err).NotTo(BeNil())
			var forbiddenErr *service.ErrResourceForbidden
			Expect(errors.As(err, &forbiddenErr)).To(BeTrue())
		})
	})
})
