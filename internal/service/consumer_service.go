package service

import (
	"context"
	"encoding/json"

	"convohealth-be/internal/dto"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// PushDelivery is implemented by the websocket hub.
type PushDelivery interface {
	Send(userID uuid.UUID, msg websocket.Message)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService relays recording events from the in-process bus to the
// owner's websocket connections.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   PushDelivery
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	delivery PushDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks: a dropped push frame is superseded by the next
// tick or snapshot poll, so redelivery buys nothing.
func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var payload struct {
		UserId string          `json:"user_id"`
		Event  json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		return
	}

	userId, err := uuid.Parse(payload.UserId)
	if err != nil {
		cs.logger.Warn("ConsumerService", "Message without owner", map[string]interface{}{"user_id": payload.UserId})
		return
	}

	cs.delivery.Send(userId, websocket.Message{Type: dto.PushRecordingEvent, Data: payload.Event})
}
