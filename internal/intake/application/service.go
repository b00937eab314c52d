package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
)

// Service validates an inbound order submission and republishes it as a
// lifecycle event. Exactly one publish per valid request; no retry here, the
// caller and the bus's delivery semantics own recovery.
type Service struct {
	log *slog.Logger
	bus EventPublisher
}

func NewService(log *slog.Logger, bus EventPublisher) *Service {
	return &Service{log: log, bus: bus}
}

type Ack struct {
	OrderID string
	EventID string
}

type submission struct {
	DetailType string               `json:"detailType"`
	OrderID    string               `json:"orderId"`
	Items      []lifecycle.LineItem `json:"items"`
}

func (s *Service) Accept(ctx context.Context, body []byte) (Ack, error) {
	var sub submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return Ack{}, fmt.Errorf("%w: malformed payload", lifecycle.ErrValidation)
	}
	if sub.DetailType == "" {
		return Ack{}, fmt.Errorf("%w: missing detailType", lifecycle.ErrValidation)
	}
	if sub.OrderID == "" {
		return Ack{}, fmt.Errorf("%w: missing orderId", lifecycle.ErrValidation)
	}
	switch lifecycle.ParseEventType(sub.DetailType) {
	case lifecycle.EventOrderPlaced, lifecycle.EventOrderCanceled:
		if len(sub.Items) == 0 {
			return Ack{}, fmt.Errorf("%w: %s requires items", lifecycle.ErrValidation, sub.DetailType)
		}
	}

	ev := OutboundEvent{
		EventID:    uuid.New().String(),
		DetailType: sub.DetailType,
		OrderID:    sub.OrderID,
		Payload:    body,
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Error("event publish failed", "order_id", sub.OrderID, "event_type", sub.DetailType, "err", err)
		return Ack{}, fmt.Errorf("%w: %v", lifecycle.ErrPublish, err)
	}

	s.log.Info("lifecycle event published", "order_id", sub.OrderID, "event_type", sub.DetailType, "event_id", ev.EventID)
	return Ack{OrderID: sub.OrderID, EventID: ev.EventID}, nil
}
