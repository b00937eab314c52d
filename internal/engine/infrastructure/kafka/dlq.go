package kafka

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type dlqMessage struct {
	OriginalTopic     string `json:"original_topic"`
	OriginalPartition int    `json:"original_partition"`
	OriginalOffset    int64  `json:"original_offset"`
	OriginalKey       string `json:"original_key"`
	OriginalValue     string `json:"original_value"`
	ErrorMessage      string `json:"error_message"`
	FailedAt          string `json:"failed_at"`
	EventType         string `json:"event_type,omitempty"`
	EventID           string `json:"event_id,omitempty"`
}

// DLQPublisher parks undecodable deliveries on a dead-letter topic so the
// main topic can keep moving.
type DLQPublisher struct {
	log    *slog.Logger
	writer *kafka.Writer
}

func NewDLQPublisher(log *slog.Logger, brokers []string, topic string) *DLQPublisher {
	return &DLQPublisher{
		log: log,
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *DLQPublisher) Close() error { return p.writer.Close() }

func (p *DLQPublisher) Publish(ctx context.Context, msg kafka.Message, cause error, eventType, eventID string) error {
	dm := dlqMessage{
		OriginalTopic:     msg.Topic,
		OriginalPartition: msg.Partition,
		OriginalOffset:    msg.Offset,
		OriginalKey:       base64.StdEncoding.EncodeToString(msg.Key),
		OriginalValue:     base64.StdEncoding.EncodeToString(msg.Value),
		ErrorMessage:      cause.Error(),
		FailedAt:          time.Now().UTC().Format(time.RFC3339),
		EventType:         eventType,
		EventID:           eventID,
	}
	value, err := json.Marshal(dm)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: value})
}
