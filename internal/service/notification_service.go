package service

import (
	"context"
	"fmt"

	"convohealth-be/internal/dto"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/websocket"
	"convohealth-be/pkg/events"
	pktNats "convohealth-be/pkg/nats"

	"github.com/google/uuid"
)

// EventSubscriber is implemented by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// NotificationService relays bus events that concern a single owner to that
// owner's websocket connections, on whichever instance holds them.
type NotificationService struct {
	subscriber EventSubscriber
	delivery   PushDelivery
	logger     logger.ILogger
}

var relayedEvents = map[string]string{
	events.UsageThresholdReached: dto.PushUsageNotice,
	events.SoapNoteSaved:         dto.PushNoteSaved,
}

func NewNotificationService(sub EventSubscriber, delivery PushDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start registers one durable consumer per relayed event type.
func (s *NotificationService) Start(ctx context.Context) error {
	for eventType := range relayedEvents {
		durable := "push-relay-" + eventType
		if err := s.subscriber.Subscribe(ctx, eventType, durable, s.HandleEvent); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}
	s.logger.Info("NotificationService", "Push relay started", nil)
	return nil
}

// HandleEvent drops events it cannot route instead of failing, so the bus
// does not redeliver them forever.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	pushType, ok := relayedEvents[event.EventType()]
	if !ok {
		return nil
	}

	payload := event.Payload()
	raw, _ := payload["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without owner", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	s.delivery.Send(userID, websocket.Message{Type: pushType, Data: payload})
	return nil
}
