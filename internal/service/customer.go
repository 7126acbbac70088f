package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/gcp"
	"github.com/synthetica/platform/internal/service/mappers"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

type CustomerService struct {
	store       store.Store
	iam         gcp.IAMClient
	eventWriter *events.EventProducer
}

func NewCustomerService(store store.Store, iam gcp.IAMClient, ew *events.EventProducer) *CustomerService {
	return &CustomerService{
		store:       store,
		iam:         iam,
		eventWriter: ew,
	}
}

func (s *CustomerService) ListCustomers(ctx context.Context, filter *store.CustomerQueryFilter) (model.CustomerList, error) {
	return s.store.Customer().List(ctx, filter)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.store.Customer().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCustomerNotFound(id)
		}
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, form api.CustomerCreate) (*model.Customer, error) {
	customer := mappers.CustomerFromApi(uuid.New(), &form)

	if s.iam != nil {
		account, err := s.iam.EnsureServiceAccount(ctx, serviceAccountID(customer.ID), customer.Name)
		if err != nil {
			return nil, err
		}
		customer.ServiceAccountEmail = account.Email
	}

	result, err := s.store.Customer().Create(ctx, customer)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrDuplicateCustomer(customer.OrgID)
		}
		return nil, err
	}

	s.emitCustomerEvent(ctx, *result)

	return result, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, form api.CustomerUpdate) (*model.Customer, error) {
	customer, err := s.store.Customer().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCustomerNotFound(id)
		}
		return nil, err
	}

	updated, err := s.store.Customer().Update(ctx, *mappers.UpdateCustomerFromApi(customer, &form))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SuspendCustomer takes a customer out of service. Its records are kept, the
// org simply cannot create anything until reactivated.
func (s *CustomerService) SuspendCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return s.updateStatus(ctx, id, model.CustomerStatusSuspended)
}

func (s *CustomerService) ReactivateCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return s.updateStatus(ctx, id, model.CustomerStatusActive)
}

func (s *CustomerService) updateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Customer, error) {
	customer, err := s.store.Customer().UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCustomerNotFound(id)
		}
		return nil, err
	}

	s.emitCustomerEvent(ctx, *customer)

	return customer, nil
}

// activeCustomerByOrg is the gate used by the project and job services.
func activeCustomerByOrg(ctx context.Context, s store.Store, orgID string) (*model.Customer, error) {
	customer, err := s.Customer().GetByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// orgs without a customer record are not suspended
			return nil, nil
		}
		return nil, err
	}

	if customer.Status == model.CustomerStatusSuspended {
		return nil, NewErrCustomerSuspended(orgID)
	}
	return customer, nil
}

func (s *CustomerService) emitCustomerEvent(ctx context.Context, customer model.Customer) {
	if s.eventWriter == nil {
		return
	}

	data, err := json.Marshal(events.CustomerEvent{
		CustomerID: customer.ID.String(),
		OrgID:      customer.OrgID,
		Status:     customer.Status,
	})
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, events.CustomerMessageKind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("customer_service").Errorw("failed to write event", "error", err, "event_kind", events.CustomerMessageKind)
	}
}

func serviceAccountID(customerID uuid.UUID) string {
	// service account ids are limited to 30 chars
	id := customerID.String()
	return fmt.Sprintf("cust-%s", id[:8])
}
