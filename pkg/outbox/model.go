package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Entry is a journaled event awaiting publication to the bus.
type Entry struct {
	ID          int64
	EventID     string
	Type        string
	Key         string
	Payload     []byte
	Traceparent string
	CreatedAt   time.Time
	Status      Status
	RetryCount  int
	LastError   *string
}
