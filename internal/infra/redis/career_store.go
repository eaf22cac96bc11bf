package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CareerStore persists player HP between battles in Redis so the handoff
// survives service restarts. Keys expire after the configured TTL; a missing
// key simply means the next battle starts at full HP.
type CareerStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCareerStore(client *redis.Client, ttl time.Duration) *CareerStore {
	return &CareerStore{client: client, ttl: ttl}
}

func (s *CareerStore) GetHP(ctx context.Context, playerID string) (int, bool, error) {
	raw, err := s.client.Get(ctx, s.key(playerID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	hp, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil
	}
	return hp, true, nil
}

func (s *CareerStore) SetHP(ctx context.Context, playerID string, hp int) error {
	return s.client.Set(ctx, s.key(playerID), strconv.Itoa(hp), s.ttl).Err()
}

func (s *CareerStore) key(playerID string) string {
	return "career:hp:" + playerID
}
