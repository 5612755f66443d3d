package infra

import (
	"context"
	"sync"

	"blog-gateway/middleware/ratelimit/domain"
)

type chanPool struct {
	slots chan struct{}
}

// NewChanPool cria o semáforo de requisições em voo. max <= 0 vira 1.
func NewChanPool(max int) domain.SlotPool {
	if max <= 0 {
		max = 1
	}
	return &chanPool{slots: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	// vaga livre tem prioridade sobre ctx já cancelado
	select {
	case p.slots <- struct{}{}:
		return p.releaser(), true
	default:
	}
	select {
	case p.slots <- struct{}{}:
		return p.releaser(), true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *chanPool) releaser() func() {
	var once sync.Once
	return func() { once.Do(func() { <-p.slots }) }
}

func (p *chanPool) InFlight() int { return len(p.slots) }
func (p *chanPool) Capacity() int { return cap(p.slots) }
