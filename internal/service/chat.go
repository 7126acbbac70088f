package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/genai"
	"github.com/synthetica/platform/internal/store"
)

type ChatService struct {
	store  store.Store
	genai  genai.Client
	client *DatasetService
}

func NewChatService(s store.Store, genaiClient genai.Client) *ChatService {
	return &ChatService{
		store:  s,
		genai:  genaiClient,
		client: NewDatasetService(s, nil),
	}
}

// Chat answers a question about a dataset. The dataset descriptor is passed
// to the model as context, the data itself never leaves object storage.
func (s *ChatService) Chat(ctx context.Context, user auth.User, datasetID uuid.UUID, prompt string) (string, error) {
	dataset, err := s.client.GetDataset(ctx, user, datasetID)
	if err != nil {
		return "", err
	}

	job, err := s.store.Job().Get(ctx, dataset.JobID)
	if err != nil {
		return "", err
	}

	datasetContext := fmt.Sprintf("dataset format=%s size_bytes=%d job_type=%s", dataset.Format, dataset.SizeBytes, job.Type)
	if job.Config != nil {
		datasetContext = fmt.Sprintf("%s generation_config=%v", datasetContext, job.Config.Data)
	}

	resp, err := s.genai.Chat(ctx, genai.ChatRequest{
		Context: datasetContext,
		Messages: []genai.ChatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	return resp.Reply, nil
}
