package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/engine/application"
	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/tracing"
)

// Consumer feeds bus deliveries into the engine one at a time. Messages are
// committed after processing regardless of outcome; recovery of failed events
// is the bus's at-least-once redelivery, and the engine's processed-event set
// keeps re-deliveries of succeeded events from double-applying.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	engine *application.Engine
	dlq    *DLQPublisher
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, engine *application.Engine, dlq *DLQPublisher) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		engine: engine,
		dlq:    dlq,
		tracer: otel.Tracer("consistency-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeLifecycleEvent")

		detailType := tracing.HeaderValue(msg.Headers, "event_type")
		eventID := tracing.HeaderValue(msg.Headers, "event_id")
		span.SetAttributes(attribute.String("event.type", detailType))

		ev, err := lifecycle.DecodeEvent(detailType, msg.Value)
		if err != nil {
			c.log.Error("undecodable event", "event_type", detailType, "offset", msg.Offset, "err", err)
			if c.dlq != nil {
				if derr := c.dlq.Publish(msgCtx, msg, err, detailType, eventID); derr != nil {
					c.log.Error("dlq publish failed", "err", derr)
				}
			}
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}
		ev.ID = eventID

		res := c.engine.Process(msgCtx, ev)
		if res.OK() {
			c.log.Info("event processed", "event_type", detailType, "order_id", ev.OrderID, "message", res.Message)
		} else {
			c.log.Error("event processing failed", "event_type", detailType, "order_id", ev.OrderID, "message", res.Message)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
