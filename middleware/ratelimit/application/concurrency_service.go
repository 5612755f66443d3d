package application

import (
	"context"
	"time"

	"blog-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService aplica o timeout de espera por vaga. Pool nil não limita.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire devolve o release da vaga ou domain.ErrNoSlot.
// AcquireTimeout <= 0 espera até o ctx da requisição encerrar.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, domain.ErrNoSlot
	}
	return release, nil
}

func (s ConcurrencyService) Occupancy() domain.Occupancy {
	if s.Pool == nil {
		return domain.Occupancy{}
	}
	return domain.Occupancy{InFlight: s.Pool.InFlight(), Capacity: s.Pool.Capacity()}
}

func (s ConcurrencyService) Saturated() bool { return s.Occupancy().Saturated() }
