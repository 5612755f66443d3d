package infra

import (
	"context"
	"fmt"
	"time"

	"blog-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// INCR + PEXPIRE no primeiro hit, no mesmo script: atômico no Redis,
// compartilhado entre réplicas do gateway.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisWindowStore é a janela fixa compartilhada via Redis.
// Com Fallback configurado, erros do Redis caem para a janela em memória.
type RedisWindowStore struct {
	client   redis.UniversalClient
	window   time.Duration
	prefix   string
	timeout  time.Duration
	fallback *MemoryWindowStore
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = prefix }
}

func WithWindowTimeout(d time.Duration) RedisWindowOption {
	return func(s *RedisWindowStore) { s.timeout = d }
}

func WithFallback(fb *MemoryWindowStore) RedisWindowOption {
	return func(s *RedisWindowStore) { s.fallback = fb }
}

func NewRedisWindowStore(client redis.UniversalClient, window time.Duration, opts ...RedisWindowOption) *RedisWindowStore {
	if window <= 0 {
		window = time.Minute
	}
	s := &RedisWindowStore{
		client:  client,
		window:  window,
		prefix:  "gateway:rl:",
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.WindowStore.
func (s *RedisWindowStore) Hit(ctx context.Context, key domain.Key) (domain.Window, error) {
	win, err := s.hit(ctx, key)
	if err != nil && s.fallback != nil {
		return s.fallback.Hit(ctx, key)
	}
	return win, err
}

func (s *RedisWindowStore) hit(ctx context.Context, key domain.Key) (domain.Window, error) {
	if s.client == nil {
		return domain.Window{}, fmt.Errorf("ratelimit redis: client not configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := windowScript.Run(ctx, s.client, []string{s.prefix + string(key)}, s.window.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.Window{}, fmt.Errorf("ratelimit redis: %w", err)
	}
	if len(res) < 2 {
		return domain.Window{}, fmt.Errorf("ratelimit redis: unexpected script reply %v", res)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = s.window
	}
	return domain.Window{
		Count:   int(res[0]),
		ResetAt: time.Now().Add(ttl),
	}, nil
}
