package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed processed-event set. Seen and Mark are split so a
// failed event is never marked and stays eligible for redelivery.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(eventID string) string {
	return fmt.Sprintf("processed:%s", eventID)
}

func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Mark(ctx context.Context, eventID string) error {
	return s.rdb.Set(ctx, key(eventID), "1", s.ttl).Err()
}
