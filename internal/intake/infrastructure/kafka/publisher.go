package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/intake/application"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/tracing"
)

// Source identifies this producer on every published event.
const Source = "ecommerce.order"

// Publisher writes lifecycle events to the bus topic, keyed by order id so
// all events for one order land on the same partition.
type Publisher struct {
	log    *slog.Logger
	writer *kafka.Writer
}

func NewPublisher(log *slog.Logger, brokers []string, topic string) *Publisher {
	return &Publisher{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Publisher) Close() error { return p.writer.Close() }

func (p *Publisher) Publish(ctx context.Context, ev application.OutboundEvent) error {
	headers := []kafka.Header{
		{Key: "source", Value: []byte(Source)},
		{Key: "event_type", Value: []byte(ev.DetailType)},
		{Key: "event_id", Value: []byte(ev.EventID)},
	}
	headers = tracing.InjectKafkaHeaders(ctx, headers)

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(ev.OrderID),
		Value:   ev.Payload,
		Headers: headers,
	})
}
