package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/synthetica/platform/internal/store/model"
)

type Customer interface {
	List(ctx context.Context, filter *CustomerQueryFilter) (model.CustomerList, error)
	Create(ctx context.Context, customer model.Customer) (*model.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetByOrgID(ctx context.Context, orgID string) (*model.Customer, error)
	Update(ctx context.Context, customer model.Customer) (*model.Customer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Customer, error)
	IncrementUsage(ctx context.Context, id uuid.UUID, jobs int64, storageBytes int64) error
	InitialMigration() error
}

type CustomerStore struct {
	db *gorm.DB
}

// Make sure we conform to Customer interface
var _ Customer = (*CustomerStore)(nil)

func NewCustomerStore(db *gorm.DB) Customer {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) InitialMigration() error {
	return s.getDB(context.Background()).AutoMigrate(&model.Customer{})
}

func (s *CustomerStore) List(ctx context.Context, filter *CustomerQueryFilter) (model.CustomerList, error) {
	var customers model.CustomerList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Model(&customers).Order("created_at").Find(&customers); result.Error != nil {
		return nil, result.Error
	}
	return customers, nil
}

func (s *CustomerStore) Create(ctx context.Context, customer model.Customer) (*model.Customer, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&customer)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &customer, nil
}

func (s *CustomerStore) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer := model.NewCustomerFromID(id)
	result := s.getDB(ctx).First(&customer)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return customer, nil
}

func (s *CustomerStore) GetByOrgID(ctx context.Context, orgID string) (*model.Customer, error) {
	var customer model.Customer
	result := s.getDB(ctx).First(&customer, "org_id = ?", orgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &customer, nil
}

func (s *CustomerStore) Update(ctx context.Context, customer model.Customer) (*model.Customer, error) {
	result := s.getDB(ctx).Model(&customer).Clauses(clause.Returning{}).Updates(&customer)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &customer, nil
}

func (s *CustomerStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Customer, error) {
	customer := model.NewCustomerFromID(id)
	result := s.getDB(ctx).Model(customer).Clauses(clause.Returning{}).Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return customer, nil
}

func (s *CustomerStore) IncrementUsage(ctx context.Context, id uuid.UUID, jobs int64, storageBytes int64) error {
	result := s.getDB(ctx).Model(&model.Customer{ID: id}).
		Updates(map[string]interface{}{
			"jobs_total":    gorm.Expr("jobs_total + ?", jobs),
			"storage_bytes": gorm.Expr("storage_bytes + ?", storageBytes),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *CustomerStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
