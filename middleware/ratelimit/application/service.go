package application

import (
	"context"
	"time"

	"blog-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Com Windows configurado usa janela fixa (Max requisições por janela);
// senão cai no token bucket de Store.
type Service struct {
	Store   domain.LimiterStore
	Windows domain.WindowStore
	Max     int

	RetryAfter time.Duration
	// FailClosed bloqueia quando o backend de contagem falha.
	FailClosed bool

	Now func() time.Time
}

func (s Service) Decide(ctx context.Context, key domain.Key) domain.Decision {
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}
	if s.Windows != nil {
		return s.decideWindow(ctx, key)
	}
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	if lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}

func (s Service) decideWindow(ctx context.Context, key domain.Key) domain.Decision {
	max := s.Max
	if max <= 0 {
		max = 1
	}

	win, err := s.Windows.Hit(ctx, key)
	if err != nil {
		if s.FailClosed {
			return domain.Decision{Allowed: false, Limit: max, RetryAfter: s.RetryAfter, Err: err}
		}
		return domain.Decision{Allowed: true, Limit: max, Remaining: max, Err: err}
	}

	remaining := max - win.Count
	if remaining < 0 {
		remaining = 0
	}
	dec := domain.Decision{
		Allowed:   win.Count <= max,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   win.ResetAt,
	}
	if !dec.Allowed {
		dec.RetryAfter = s.retryUntil(win.ResetAt)
	}
	return dec
}

// retryUntil arredonda para cima em segundos, nunca menos que 1s.
func (s Service) retryUntil(resetAt time.Time) time.Duration {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	d := resetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}
