package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

func (d *Dispatcher) Dispatch(ctx context.Context, entry Entry) error {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(entry.Type)},
		{Key: "event_id", Value: []byte(entry.EventID)},
	}
	if entry.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(entry.Traceparent)})
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(entry.Key),
		Value:   entry.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", "entry_id", entry.ID, "err", err)
		return err
	}
	d.log.Info("outbox dispatched", "entry_id", entry.ID, "type", entry.Type)
	return nil
}
