package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synthetica/platform/internal/gcp"
	"github.com/synthetica/platform/internal/store"
)

type ServiceAccountService struct {
	store store.Store
	iam   gcp.IAMClient
}

func NewServiceAccountService(store store.Store, iam gcp.IAMClient) *ServiceAccountService {
	return &ServiceAccountService{
		store: store,
		iam:   iam,
	}
}

// RotateKey provisions a fresh key for the customer's service account and
// retires the previous one. The old key is deleted only after the new one has
// been persisted, so a crash in between leaves the customer with two working
// keys instead of none. The key material is returned exactly once and never
// stored.
func (s *ServiceAccountService) RotateKey(ctx context.Context, customerID uuid.UUID) (*gcp.ServiceAccountKey, error) {
	customer, err := s.store.Customer().Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCustomerNotFound(customerID)
		}
		return nil, err
	}

	account, err := s.iam.EnsureServiceAccount(ctx, serviceAccountID(customer.ID), customer.Name)
	if err != nil {
		return nil, err
	}

	key, err := s.iam.CreateKey(ctx, account.Email)
	if err != nil {
		return nil, err
	}

	oldKeyID := customer.ServiceAccountKeyID
	customer.ServiceAccountEmail = account.Email
	customer.ServiceAccountKeyID = key.KeyID

	if _, err := s.store.Customer().Update(ctx, *customer); err != nil {
		return nil, err
	}

	if oldKeyID != "" && oldKeyID != key.KeyID {
		if err := s.iam.DeleteKey(ctx, account.Email, oldKeyID); err != nil {
			// the new key is live, leave the stale one for the next rotation
			zap.S().Named("service_account").Errorw("failed to delete previous key", "error", err, "customer_id", customerID, "key_id", oldKeyID)
		}
	}

	return key, nil
}

// ListKeys returns the ids of the keys currently attached to the customer's
// service account.
func (s *ServiceAccountService) ListKeys(ctx context.Context, customerID uuid.UUID) ([]string, error) {
	customer, err := s.store.Customer().Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCustomerNotFound(customerID)
		}
		return nil, err
	}

	if customer.ServiceAccountEmail == "" {
		return []string{}, nil
	}

	return s.iam.ListKeys(ctx, customer.ServiceAccountEmail)
}
