package gcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/option"

	"github.com/synthetica/platform/internal/config"
)

// IAMClient provisions the per-customer service accounts and rotates their
// keys. Mocked in the service tests.
type IAMClient interface {
	EnsureServiceAccount(ctx context.Context, accountID string, displayName string) (*ServiceAccount, error)
	CreateKey(ctx context.Context, serviceAccountEmail string) (*ServiceAccountKey, error)
	DeleteKey(ctx context.Context, serviceAccountEmail string, keyID string) error
	ListKeys(ctx context.Context, serviceAccountEmail string) ([]string, error)
}

type ServiceAccount struct {
	Email       string
	UniqueID    string
	DisplayName string
}

type ServiceAccountKey struct {
	KeyID string
	// PrivateKeyData is the base64 encoded key material as returned by the
	// api. It is handed to the customer exactly once and never stored.
	PrivateKeyData string
}

type iamClient struct {
	svc       *iam.Service
	projectID string
}

var _ IAMClient = (*iamClient)(nil)

func NewIAMClient(ctx context.Context, cfg *config.Config) (*iamClient, error) {
	opts := []option.ClientOption{}
	if credsFile := cfg.Service.GCP.CredentialsFile; credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}

	svc, err := iam.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create iam service")
	}

	return &iamClient{svc: svc, projectID: cfg.Service.GCP.ProjectID}, nil
}

func (c *iamClient) EnsureServiceAccount(ctx context.Context, accountID string, displayName string) (*ServiceAccount, error) {
	accountEmail := fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, c.projectID)
	accountName := fmt.Sprintf("projects/%s/serviceAccounts/%s", c.projectID, accountEmail)

	account, err := c.svc.Projects.ServiceAccounts.Get(accountName).Context(ctx).Do()
	if err == nil {
		return &ServiceAccount{
			Email:       account.Email,
			UniqueID:    account.UniqueId,
			DisplayName: account.DisplayName,
		}, nil
	}
	if !isNotFound(err) {
		return nil, errors.Wrapf(err, "failed to look up service account %q", accountEmail)
	}

	account, err = c.svc.Projects.ServiceAccounts.Create(fmt.Sprintf("projects/%s", c.projectID), &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create service account %q", accountID)
	}

	return &ServiceAccount{
		Email:       account.Email,
		UniqueID:    account.UniqueId,
		DisplayName: account.DisplayName,
	}, nil
}

func (c *iamClient) CreateKey(ctx context.Context, serviceAccountEmail string) (*ServiceAccountKey, error) {
	accountName := fmt.Sprintf("projects/%s/serviceAccounts/%s", c.projectID, serviceAccountEmail)

	key, err := c.svc.Projects.ServiceAccounts.Keys.Create(accountName, &iam.CreateServiceAccountKeyRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create key for %q", serviceAccountEmail)
	}

	return &ServiceAccountKey{
		KeyID:          keyIDFromName(key.Name),
		PrivateKeyData: key.PrivateKeyData,
	}, nil
}

func (c *iamClient) DeleteKey(ctx context.Context, serviceAccountEmail string, keyID string) error {
	keyName := fmt.Sprintf("projects/%s/serviceAccounts/%s/keys/%s", c.projectID, serviceAccountEmail, keyID)

	if _, err := c.svc.Projects.ServiceAccounts.Keys.Delete(keyName).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			// already gone, rotation treats that as success
			return nil
		}
		return errors.Wrapf(err, "failed to delete key %q of %q", keyID, serviceAccountEmail)
	}
	return nil
}

func (c *iamClient) ListKeys(ctx context.Context, serviceAccountEmail string) ([]string, error) {
	accountName := fmt.Sprintf("projects/%s/serviceAccounts/%s", c.projectID, serviceAccountEmail)

	resp, err := c.svc.Projects.ServiceAccounts.Keys.List(accountName).KeyTypes("USER_MANAGED").Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list keys of %q", serviceAccountEmail)
	}

	keys := make([]string, 0, len(resp.Keys))
	for _, k := range resp.Keys {
		keys = append(keys, keyIDFromName(k.Name))
	}
	return keys, nil
}

// keyIDFromName extracts the key id out of the full resource name
// projects/{p}/serviceAccounts/{sa}/keys/{id}.
func keyIDFromName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}
