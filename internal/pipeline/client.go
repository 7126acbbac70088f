package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"

	"github.com/synthetica/platform/internal/config"
)

const (
	defaultRetryBase    = 500 * time.Millisecond
	defaultMaxRetries   = 4
	defaultClientTimeout = 30 * time.Second
)

// Client talks to the external generation pipeline. Transient failures
// (network errors, 5xx) are retried with exponential backoff and jitter,
// everything else surfaces immediately.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	Status(ctx context.Context, pipelineJobID string) (*JobStatus, error)
	Cancel(ctx context.Context, pipelineJobID string) error
}

type client struct {
	baseUrl    string
	token      string
	httpClient *http.Client
	maxRetries uint64
	retryBase  time.Duration
}

var _ Client = (*client)(nil)

type ClientOpts func(c *client)

func NewClient(cfg *config.Config, opts ...ClientOpts) *client {
	c := &client{
		baseUrl:    cfg.Service.Pipeline.BaseUrl,
		token:      cfg.Service.Pipeline.Token,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
	}

	for _, o := range opts {
		o(c)
	}
	return c
}

func WithHTTPClient(hc *http.Client) ClientOpts {
	return func(c *client) {
		c.httpClient = hc
	}
}

func WithMaxRetries(n uint64) ClientOpts {
	return func(c *client) {
		c.maxRetries = n
	}
}

func WithRetryBase(d time.Duration) ClientOpts {
	return func(c *client) {
		c.retryBase = d
	}
}

func (c *client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/v1/jobs", body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to submit job to the pipeline")
	}
	return &resp, nil
}

func (c *client) Status(ctx context.Context, pipelineJobID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/jobs/%s", pipelineJobID), nil, &status); err != nil {
		return nil, errors.Wrapf(err, "failed to get status of pipeline job %q", pipelineJobID)
	}
	return &status, nil
}

func (c *client) Cancel(ctx context.Context, pipelineJobID string) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/jobs/%s", pipelineJobID), nil, nil); err != nil {
		return errors.Wrapf(err, "failed to cancel pipeline job %q", pipelineJobID)
	}
	return nil
}

func (c *client) do(ctx context.Context, method string, path string, body []byte, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.WithJitterPercent(20, retry.NewExponential(c.retryBase)))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// network errors are worth another try
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("pipeline returned status %d", resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("pipeline returned status %d", resp.StatusCode)
		}

		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
