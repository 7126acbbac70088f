package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/synthetica/platform/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Customer() Customer
	Project() Project
	Job() Job
	Dataset() Dataset
	InitialMigration() error
	Statistics(ctx context.Context) (model.PlatformStats, error)
	Close() error
}

type DataStore struct {
	customer Customer
	project  Project
	job      Job
	dataset  Dataset
	db       *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		customer: NewCustomerStore(db),
		project:  NewProjectStore(db),
		job:      NewJobStore(db),
		dataset:  NewDatasetStore(db),
		db:       db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Customer() Customer {
	return s.customer
}

func (s *DataStore) Project() Project {
	return s.project
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Dataset() Dataset {
	return s.dataset
}

func (s *DataStore) InitialMigration() error {
	if err := s.Customer().InitialMigration(); err != nil {
		return err
	}
	if err := s.Project().InitialMigration(); err != nil {
		return err
	}
	if err := s.Job().InitialMigration(); err != nil {
		return err
	}
	return s.Dataset().InitialMigration()
}

func (s *DataStore) Statistics(ctx context.Context) (model.PlatformStats, error) {
	stats := model.PlatformStats{}

	if err := s.db.WithContext(ctx).Model(&model.Customer{}).Count(&stats.Customers).Error; err != nil {
		return model.PlatformStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Project{}).Count(&stats.Projects).Error; err != nil {
		return model.PlatformStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Dataset{}).Count(&stats.Datasets).Error; err != nil {
		return model.PlatformStats{}, err
	}

	jobsByStatus, err := s.Job().CountByStatus(ctx)
	if err != nil {
		return model.PlatformStats{}, err
	}
	stats.JobsByStatus = jobsByStatus

	return stats, nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
