package lifecycle

import (
	"encoding/json"
	"fmt"
)

type EventType int

const (
	EventUnrecognized EventType = iota
	EventOrderPlaced
	EventOrderShipped
	EventOrderDelivered
	EventOrderCanceled
)

const (
	DetailOrderPlaced    = "OrderPlaced"
	DetailOrderShipped   = "OrderShipped"
	DetailOrderDelivered = "OrderDelivered"
	DetailOrderCanceled  = "OrderCanceled"
)

func ParseEventType(detailType string) EventType {
	switch detailType {
	case DetailOrderPlaced:
		return EventOrderPlaced
	case DetailOrderShipped:
		return EventOrderShipped
	case DetailOrderDelivered:
		return EventOrderDelivered
	case DetailOrderCanceled:
		return EventOrderCanceled
	default:
		return EventUnrecognized
	}
}

func (t EventType) String() string {
	switch t {
	case EventOrderPlaced:
		return DetailOrderPlaced
	case EventOrderShipped:
		return DetailOrderShipped
	case EventOrderDelivered:
		return DetailOrderDelivered
	case EventOrderCanceled:
		return DetailOrderCanceled
	default:
		return "Unrecognized"
	}
}

// DerivedStatus is the order status implied by the event type when the event
// carries no explicit status override.
func (t EventType) DerivedStatus() (OrderStatus, bool) {
	switch t {
	case EventOrderPlaced:
		return StatusPlaced, true
	case EventOrderShipped:
		return StatusShipped, true
	case EventOrderDelivered:
		return StatusDelivered, true
	case EventOrderCanceled:
		return StatusCanceled, true
	default:
		return "", false
	}
}

// Event is an immutable lifecycle event as delivered by the bus. The engine
// only reads it.
type Event struct {
	ID      string
	Type    EventType
	OrderID string
	Status  OrderStatus
	Items   []LineItem
	Detail  []byte
}

type eventDetail struct {
	OrderID string     `json:"orderId"`
	Items   []LineItem `json:"items"`
	Status  string     `json:"status"`
}

// DecodeEvent parses the detail payload of a lifecycle event. The detail type
// tag is mapped through ParseEventType; unrecognized tags decode fine and are
// handled by the engine's catch-all arm.
func DecodeEvent(detailType string, detail []byte) (Event, error) {
	var d eventDetail
	if err := json.Unmarshal(detail, &d); err != nil {
		return Event{}, fmt.Errorf("decode event detail: %w", err)
	}
	return Event{
		Type:    ParseEventType(detailType),
		OrderID: d.OrderID,
		Status:  OrderStatus(d.Status),
		Items:   d.Items,
		Detail:  detail,
	}, nil
}
