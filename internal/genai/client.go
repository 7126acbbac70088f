// Package genai is a thin client for the generative model HTTP endpoint used
// by the dataset chat.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/synthetica/platform/internal/config"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Context  string        `json:"context,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type client struct {
	baseUrl    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ Client = (*client)(nil)

func NewClient(cfg *config.Config) *client {
	return &client{
		baseUrl:    cfg.Service.GenAI.BaseUrl,
		apiKey:     cfg.Service.GenAI.ApiKey,
		model:      cfg.Service.GenAI.Model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("genai error (status %d)", resp.StatusCode)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("genai decode: %w", err)
	}
	return &out, nil
}
