package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const defaultSequenceKey = "todos:next-id"

// Sequence hands out server-assigned todo ids from a Redis counter so ids
// stay unique across all users and all instances.
type Sequence struct {
	client *redis.Client
	key    string
}

// NewSequence creates a Sequence on the given Redis client. An empty key
// uses the default counter key.
func NewSequence(client *redis.Client, key string) *Sequence {
	if key == "" {
		key = defaultSequenceKey
	}
	return &Sequence{client: client, key: key}
}

// Next returns the next id, starting at 1.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, s.key).Result()
}
