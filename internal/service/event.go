package service

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/events"
	"github.com/synthetica/platform/internal/service/mappers"
)

type EventService struct {
	eventWriter *events.EventProducer
}

func NewEventService(ew *events.EventProducer) *EventService {
	return &EventService{eventWriter: ew}
}

// PushEvent forwards console telemetry to the event stream. Delivery is best
// effort, the caller always gets an ack.
func (s *EventService) PushEvent(ctx context.Context, apiEvent api.Event) {
	if s.eventWriter == nil {
		return
	}

	uiEvent := mappers.UIEventFromApi(apiEvent)

	data, err := json.Marshal(uiEvent)
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, events.UIMessageKind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("event_service").Errorw("failed to write event", "error", err, "event_kind", events.UIMessageKind)
	}
}
