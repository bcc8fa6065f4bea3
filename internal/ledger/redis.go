package ledger

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/redis"
)

// RedisStore keeps the ledger in a single Redis set. Persist sends the new
// word plus any word whose earlier SADD failed.
type RedisStore struct {
	client  *redis.Client
	key     string
	pending pending
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) ReadAll(ctx context.Context) ([]string, error) {
	words, err := s.client.SetMembers(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("reading set %s: %w", s.key, err)
	}
	return words, nil
}

func (s *RedisStore) Persist(ctx context.Context, word string, _ []string) error {
	batch := s.pending.with(word)
	_, err := s.client.SetAdd(ctx, s.key, batch...)
	s.pending.settle(batch, err)
	if err != nil {
		return fmt.Errorf("adding to set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
