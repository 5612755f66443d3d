package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"blog-gateway/middleware/ratelimit/domain"
)

// waitingPool nunca libera vaga: só retorna quando o ctx encerra.
type waitingPool struct{}

func (waitingPool) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}

func (waitingPool) InFlight() int { return 3 }
func (waitingPool) Capacity() int { return 3 }

type countingPool struct {
	acquired int
}

func (p *countingPool) Acquire(context.Context) (func(), bool) {
	p.acquired++
	return func() {}, true
}

func (p *countingPool) InFlight() int { return p.acquired }
func (p *countingPool) Capacity() int { return 10 }

func TestConcurrencyService_NilPoolNeverLimits(t *testing.T) {
	svc := ConcurrencyService{}
	release, err := svc.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot, got %v", err)
	}
	release()
	if svc.Saturated() {
		t.Fatalf("nil pool must never be saturated")
	}
	if occ := svc.Occupancy(); occ != (domain.Occupancy{}) {
		t.Fatalf("expected empty occupancy, got %+v", occ)
	}
}

func TestConcurrencyService_TimeoutYieldsErrNoSlot(t *testing.T) {
	svc := ConcurrencyService{Pool: waitingPool{}, AcquireTimeout: 10 * time.Millisecond}

	start := time.Now()
	_, err := svc.Acquire(context.Background())
	if !errors.Is(err, domain.ErrNoSlot) {
		t.Fatalf("expected ErrNoSlot, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("acquire ignored the timeout")
	}
	if !svc.Saturated() {
		t.Fatalf("expected saturated pool")
	}
}

func TestConcurrencyService_ZeroTimeoutWaitsForRequestContext(t *testing.T) {
	svc := ConcurrencyService{Pool: waitingPool{}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := svc.Acquire(ctx); !errors.Is(err, domain.ErrNoSlot) {
		t.Fatalf("expected ErrNoSlot after ctx deadline, got %v", err)
	}
}

func TestConcurrencyService_DelegatesToPool(t *testing.T) {
	pool := &countingPool{}
	svc := ConcurrencyService{Pool: pool}

	if _, err := svc.Acquire(context.Background()); err != nil {
		t.Fatalf("expected slot, got %v", err)
	}
	if pool.acquired != 1 {
		t.Fatalf("expected one Acquire on the pool, got %d", pool.acquired)
	}
	if occ := svc.Occupancy(); occ.InFlight != 1 || occ.Capacity != 10 || occ.Saturated() {
		t.Fatalf("unexpected occupancy %+v", occ)
	}
}
