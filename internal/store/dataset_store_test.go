package store_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

const (
	insertDatasetStm = "INSERT INTO datasets (id, created_at, project_id, job_id, org_id, object_key, format, size_bytes) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', '%s', '%s', 'parquet', 1024);"
)

var _ = Describe("dataset store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM datasets;")
	})

	Context("list", func() {
		It("successfully list the datasets -- filtered by project", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertDatasetStm, uuid.NewString(), projectID, uuid.NewString(), "org-1", "org-1/a.parquet"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDatasetStm, uuid.NewString(), uuid.NewString(), uuid.NewString(), "org-1", "org-1/b.parquet"))
			Expect(tx.Error).To(BeNil())

			datasets, err := s.Dataset().List(context.TODO(), store.NewDatasetQueryFilter().ByProjectID(projectID))
			Expect(err).To(BeNil())
			Expect(datasets).To(HaveLen(1))
			Expect(datasets[0].ObjectKey).To(Equal("org-1/a.parquet"))
		})
	})

	Context("create", func() {
		It("successfully creates a dataset", func() {
			dataset, err := s.Dataset().Create(context.TODO(), model.Dataset{
				ID:        uuid.New(),
				ProjectID: uuid.New(),
				JobID:     uuid.New(),
				OrgID:     "org-1",
				ObjectKey: "org-1/result.parquet",
				Format:    "parquet",
				SizeBytes: 2048,
			})
			Expect(err).To(BeNil())

			found, err := s.Dataset().Get(context.TODO(), dataset.ID)
			Expect(err).To(BeNil())
			Expect(found.SizeBytes).To(Equal(int64(2048)))
		})
	})

	Context("usage", func() {
		It("sums the dataset sizes of a project", func() {
			projectID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertDatasetStm, uuid.NewString(), projectID, uuid.NewString(), "org-1", "org-1/a.parquet"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDatasetStm, uuid.NewString(), projectID, uuid.NewString(), "org-1", "org-1/b.parquet"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDatasetStm, uuid.NewString(), uuid.NewString(), uuid.NewString(), "org-1", "org-1/other.parquet"))
			Expect(tx.Error).To(BeNil())

			total, err := s.Dataset().SumSizeByProject(context.TODO(), projectID)
			Expect(err).To(BeNil())
			Expect(total).To(Equal(int64(2048)))
		})

		It("returns zero for an empty project", func() {
			total, err := s.Dataset().SumSizeByProject(context.TODO(), uuid.New())
			Expect(err).To(BeNil())
			Expect(total).To(Equal(int64(0)))
		})
	})

	Context("delete", func() {
		It("deletes a dataset and tolerates a second delete", func() {
			datasetID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertDatasetStm, datasetID, uuid.NewString(), uuid.NewString(), "org-1", "org-1/a.parquet"))
			Expect(tx.Error).To(BeNil())

			Expect(s.Dataset().Delete(context.TODO(), datasetID)).To(Succeed())
			Expect(s.Dataset().Delete(context.TODO(), datasetID)).To(Succeed())

			_, err := s.Dataset().Get(context.TODO(), datasetID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})
})
