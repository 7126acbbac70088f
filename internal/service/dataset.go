package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/storage"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
	"github.com/synthetica/platform/pkg/metrics"
)

const downloadURLExpiry = 15 * time.Minute

type DatasetService struct {
	store       store.Store
	objectStore storage.ObjectStore
}

func NewDatasetService(store store.Store, objectStore storage.ObjectStore) *DatasetService {
	return &DatasetService{
		store:       store,
		objectStore: objectStore,
	}
}

func (s *DatasetService) ListDatasets(ctx context.Context, user auth.User, projectID uuid.UUID) (model.DatasetList, error) {
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

	return s.store.Dataset().List(ctx, store.NewDatasetQueryFilter().ByProjectID(projectID))
}

func (s *DatasetService) GetDataset(ctx context.Context, user auth.User, id uuid.UUID) (*model.Dataset, error) {
	dataset, err := s.store.Dataset().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDatasetNotFound(id)
		}
		return nil, err
	}

	if dataset.OrgID != user.Organization {
		return nil, NewErrResourceForbidden(id, "dataset")
	}

	return dataset, nil
}

// GetDownloadURL hands out a short-lived presigned url. The dataset bytes are
// served straight from object storage.
func (s *DatasetService) GetDownloadURL(ctx context.Context, user auth.User, id uuid.UUID) (string, time.Time, error) {
	dataset, err := s.GetDataset(ctx, user, id)
	if err != nil {
		return "", time.Time{}, err
	}

	project, err := s.store.Project().Get(ctx, dataset.ProjectID)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(downloadURLExpiry)
	url, err := s.objectStore.PresignedGetURL(ctx, project.StorageBucket, dataset.ObjectKey, downloadURLExpiry)
	if err != nil {
		return "", time.Time{}, err
	}

	metrics.IncreaseDatasetDownloadsTotalMetric(dataset.Format)

	return url, expiresAt, nil
}

// DeleteDataset removes the object first, the record after. A dangling record
// is recoverable, a dangling object is not. Datasets inside the project's
// retention window cannot be deleted.
func (s *DatasetService) DeleteDataset(ctx context.Context, user auth.User, id uuid.UUID) error {
	dataset, err := s.GetDataset(ctx, user, id)
	if err != nil {
		return err
	}

	project, err := s.store.Project().Get(ctx, dataset.ProjectID)
	if err != nil {
		return err
	}

	if project.Settings != nil && project.Settings.Data.RetentionDays > 0 {
		retainedUntil := dataset.CreatedAt.AddDate(0, 0, project.Settings.Data.RetentionDays)
		if time.Now().Before(retainedUntil) {
			return NewErrDatasetRetained(id, retainedUntil)
		}
	}

	if s.objectStore != nil {
		if err := s.objectStore.Remove(ctx, project.StorageBucket, dataset.ObjectKey); err != nil {
			return err
		}
	}

	if err := s.store.Dataset().Delete(ctx, id); err != nil {
		return err
	}

	customer, err := s.store.Customer().GetByOrgID(ctx, dataset.OrgID)
	if err == nil {
		if err := s.store.Customer().IncrementUsage(ctx, customer.ID, 0, -dataset.SizeBytes); err != nil {
			zap.S().Named("dataset_service").Errorw("failed to update usage counters", "error", err, "customer_id", customer.ID)
		}
	}

	return nil
}
