package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda as inscrições num hash: campo = endpoint, valor = JSON.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("notify: redis client is nil")
	}
	if prefix == "" {
		prefix = "gateway:push"
	}
	return &RedisStore{rdb: rdb, key: prefix + ":subscriptions"}, nil
}

func (s *RedisStore) Save(ctx context.Context, sub Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.key, sub.Endpoint, raw).Err(); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, endpoint string) (bool, error) {
	n, err := s.rdb.HDel(ctx, s.key, endpoint).Result()
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Subscription, error) {
	all, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out := make([]Subscription, 0, len(all))
	for endpoint, raw := range all {
		var sub Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("decode subscription %s: %w", endpoint, err)
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out, nil
}
