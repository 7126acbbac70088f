package storage

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/synthetica/platform/internal/config"
)

const defaultURLExpiry = 15 * time.Minute

// ObjectStore fronts the bucket holding generated datasets. Download access
// goes through presigned urls so dataset bytes never cross the api server.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string, region string) error
	Put(ctx context.Context, bucket string, key string, body io.Reader, size int64) error
	Stat(ctx context.Context, bucket string, key string) (int64, error)
	PresignedGetURL(ctx context.Context, bucket string, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, bucket string, key string) error
}

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	accessKey       string
	secretAccessKey string
	region          string
	useSSL          bool
	urlExpiry       time.Duration
}

func newMinioConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL:    false,
		urlExpiry: defaultURLExpiry,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type minioStore struct {
	cfg    *minioConfig
	client *minio.Client
}

var _ ObjectStore = (*minioStore)(nil)

func NewMinioStore(opts ...MinioOpts) (*minioStore, error) {
	cfg := newMinioConfig(opts...)

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, err
	}

	return &minioStore{cfg: cfg, client: client}, nil
}

// NewMinioStoreFromConfig builds the store out of the service configuration.
func NewMinioStoreFromConfig(cfg *config.Config) (*minioStore, error) {
	return NewMinioStore(
		WithEndpoint(cfg.Service.Storage.Endpoint),
		WithAccessKey(cfg.Service.Storage.AccessKey),
		WithSecretKey(cfg.Service.Storage.SecretAccessKey),
		WithRegion(cfg.Service.Storage.Region),
		WithSSL(cfg.Service.Storage.UseSSL),
	)
}

func (s *minioStore) EnsureBucket(ctx context.Context, bucket string, region string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func (s *minioStore) Put(ctx context.Context, bucket string, key string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{})
	return err
}

func (s *minioStore) Stat(ctx context.Context, bucket string, key string) (int64, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (s *minioStore) PresignedGetURL(ctx context.Context, bucket string, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.cfg.urlExpiry
	}

	u, err := s.client.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *minioStore) Remove(ctx context.Context, bucket string, key string) error {
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithRegion(region string) MinioOpts {
	return func(c *minioConfig) {
		c.region = region
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

func WithURLExpiry(expiry time.Duration) MinioOpts {
	return func(c *minioConfig) {
		c.urlExpiry = expiry
	}
}
