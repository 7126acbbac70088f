package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/synthetica/platform/internal/store/model"
)

type Dataset interface {
	List(ctx context.Context, filter *DatasetQueryFilter) (model.DatasetList, error)
	Create(ctx context.Context, dataset model.Dataset) (*model.Dataset, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SumSizeByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	InitialMigration() error
}

type DatasetStore struct {
	db *gorm.DB
}

// Make sure we conform to Dataset interface
var _ Dataset = (*DatasetStore)(nil)

func NewDatasetStore(db *gorm.DB) Dataset {
	return &DatasetStore{db: db}
}

func (s *DatasetStore) InitialMigration() error {
	return s.getDB(context.Background()).AutoMigrate(&model.Dataset{})
}

func (s *DatasetStore) List(ctx context.Context, filter *DatasetQueryFilter) (model.DatasetList, error) {
	var datasets model.DatasetList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at").Find(&datasets); result.Error != nil {
		return nil, result.Error
	}
	return datasets, nil
}

func (s *DatasetStore) Create(ctx context.Context, dataset model.Dataset) (*model.Dataset, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&dataset)
	if result.Error != nil {
		return nil, result.Error
	}
	return &dataset, nil
}

func (s *DatasetStore) Get(ctx context.Context, id uuid.UUID) (*model.Dataset, error) {
	dataset := model.NewDatasetFromID(id)
	result := s.getDB(ctx).First(&dataset)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return dataset, nil
}

func (s *DatasetStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Delete(&model.Dataset{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

// SumSizeByProject returns the total bytes of datasets stored in the project's
// bucket, used for the storage quota check.
func (s *DatasetStore) SumSizeByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var total *int64
	result := s.getDB(ctx).Model(&model.Dataset{}).Select("SUM(size_bytes)").Where("project_id = ?", projectID).Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (s *DatasetStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
