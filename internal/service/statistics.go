package service

import (
	"context"

	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

type StatisticsService struct {
	store store.Store
}

func NewStatisticsService(store store.Store) *StatisticsService {
	return &StatisticsService{store: store}
}

func (s *StatisticsService) GetStatistics(ctx context.Context) (model.PlatformStats, error) {
	return s.store.Statistics(ctx)
}
