package service_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/config"
	"github.com/synthetica/platform/internal/service"
	"github.com/synthetica/platform/internal/store"
)

const (
	insertProjectWithRetentionStm = "INSERT INTO projects (id, created_at, name, org_id, status, settings) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', 'active', '{\"retention_days\": %d, \"storage_quota_bytes\": 0}');"
	insertDatasetAtStm            = "INSERT INTO datasets (id, created_at, project_id, job_id, org_id, object_key, format, size_bytes) VALUES ('%s', '%s', '%s', '%s', '%s', 'datasets/result.parquet', 'parquet', 1024);"
)

var _ = Describe("dataset service", Ordered, func() {
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
		gormdb.Exec("DELETE FROM projects;")
		gormdb.Exec("DELETE FROM customers;")
	})

	Context("delete", func() {
		It("refuses to delete a dataset inside the retention window", func() {
			projectID := uuid.New()
			datasetID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectWithRetentionStm, projectID, "alpha", "org-1", 30))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf("INSERT INTO datasets (id, created_at, project_id, job_id, org_id, object_key, format, size_bytes) VALUES ('%s', CURRENT_TIMESTAMP, '%s', '%s', 'org-1', 'datasets/result.parquet', 'parquet', 1024);", datasetID, projectID, uuid.New()))
			Expect(tx.Error).To(BeNil())

			srv := service.NewDatasetService(s, &fakeObjectStore{})

			err := srv.DeleteDataset(context.TODO(), user, datasetID)
			Expect(err).NotTo(BeNil())
			var retainedErr *service.ErrDatasetRetained
			Expect(errors.As(err, &retainedErr)).To(BeTrue())

			_, err = s.Dataset().Get(context.TODO(), datasetID)
			Expect(err).To(BeNil())
		})

		It("deletes a dataset once the retention window closed", func() {
			projectID := uuid.New()
			datasetID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectWithRetentionStm, projectID, "alpha", "org-1", 30))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDatasetAtStm, datasetID, "2020-01-01 00:00:00", projectID, uuid.New(), "org-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewDatasetService(s, &fakeObjectStore{})

			Expect(srv.DeleteDataset(context.TODO(), user, datasetID)).To(Succeed())

			_, err := s.Dataset().Get(context.TODO(), datasetID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("deletes a dataset of a project without retention settings", func() {
			projectID := uuid.New()
			datasetID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDatasetAtStm, datasetID, "2020-01-01 00:00:00", projectID, uuid.New(), "org-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewDatasetService(s, &fakeObjectStore{})

			Expect(srv.DeleteDataset(context.TODO(), user, datasetID)).To(Succeed())
		})

		It("returns the customer's storage on delete", func() {
			projectID := uuid.New()
			datasetID := uuid.New()
			customerID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertProjectStm, projectID, "alpha", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertCustomerStm, customerID, "acme", "ops@acme.io", "org-1", "active"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf("UPDATE customers SET storage_bytes = 4096 WHERE id = '%s';", customerID))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDatasetAtStm, datasetID, "2020-01-01 00:00:00", projectID, uuid.New(), "org-1"))
			Expect(tx.Error).To(BeNil())

			srv := service.NewDatasetService(s, &fakeObjectStore{})

			Expect(srv.DeleteDataset(context.TODO(), user, datasetID)).To(Succeed())

			customer, err := s.Customer().Get(context.TODO(), customerID)
			Expect(err).To(BeNil())
			Expect(customer.StorageBytes).To(Equal(int64(3072)))
		})
	})
})
