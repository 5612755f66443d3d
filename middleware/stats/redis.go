package stats

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore agrupa os contadores por gate. Com prefix "gateway:stats" e o gate
// de rate limit:
//
//	gateway:stats:ratelimit                 allowed, denied, reason:<motivo>
//	gateway:stats:ratelimit:route           "<METHOD> <path>:allowed|denied"
//	gateway:stats:ratelimit:m:<YYYYMMDDhhmm> allowed, denied (expira)
//	gateway:stats:ratelimit:key:<identidade> allowed, denied (expira, opcional)
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	// perMinute liga a série por minuto ("minute"); "none" desliga.
	perMinute bool
	trackKeys bool
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithTTL vale para as séries por minuto e por identidade.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = d }
}

func WithBucket(bucket string) RedisOption {
	return func(s *RedisStore) {
		s.perMinute = strings.EqualFold(strings.TrimSpace(bucket), "minute")
	}
}

func WithRedisTrackKeys(track bool) RedisOption {
	return func(s *RedisStore) { s.trackKeys = track }
}

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:       rdb,
		prefix:    "gateway:stats",
		ttl:       24 * time.Hour,
		perMinute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) gateKey(g Gate, parts ...string) string {
	name := string(g)
	if name == "" {
		name = "unknown"
	}
	return strings.Join(append([]string{s.prefix, name}, parts...), ":")
}

func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}

	pipe := s.rdb.Pipeline()
	gateKey := s.gateKey(ev.Gate)
	pipe.HIncrBy(ctx, gateKey, outcome, 1)
	if !ev.Allowed && ev.Reason != "" {
		pipe.HIncrBy(ctx, gateKey, "reason:"+ev.Reason, 1)
	}

	if route := strings.TrimSpace(ev.Method + " " + ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.gateKey(ev.Gate, "route"), route+":"+outcome, 1)
	}

	if s.perMinute {
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		s.incrExpiring(ctx, pipe, s.gateKey(ev.Gate, "m", at.UTC().Format("200601021504")), outcome)
	}

	if k := strings.TrimSpace(ev.Key); s.trackKeys && k != "" {
		s.incrExpiring(ctx, pipe, s.gateKey(ev.Gate, "key", k), outcome)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, field string) {
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}
