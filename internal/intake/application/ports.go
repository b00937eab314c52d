package application

import "context"

// OutboundEvent is one lifecycle event to be placed on the bus. Payload is
// the caller's submission verbatim.
type OutboundEvent struct {
	EventID    string
	DetailType string
	OrderID    string
	Payload    []byte
}

type EventPublisher interface {
	Publish(ctx context.Context, ev OutboundEvent) error
}
