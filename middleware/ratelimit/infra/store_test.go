package infra

import (
	"context"
	"testing"
	"time"

	"blog-gateway/middleware/ratelimit/domain"
)

func TestStore_GetSameKeyReturnsSameLimiter(t *testing.T) {
	s := NewStore(10, 1)

	l1 := s.Get(domain.Key("k"))
	l2 := s.Get(domain.Key("k"))
	if l1 != l2 {
		t.Fatalf("expected same limiter pointer for same key")
	}
	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}
}

func TestStore_LowBurstRejectsSecondImmediateAllow(t *testing.T) {
	s := NewStore(0.02, 1)

	lim := s.Get(domain.Key("k"))
	if !lim.Allow() {
		t.Fatalf("expected first Allow to be true")
	}
	if lim.Allow() {
		t.Fatalf("expected second immediate Allow to be false (burst=1)")
	}
}

func TestStore_CleanupRemovesIdleEntries(t *testing.T) {
	s := NewStore(10, 1, WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	before := s.Get(domain.Key("k"))
	time.Sleep(4 * time.Millisecond)

	s.Cleanup()

	after := s.Get(domain.Key("k"))
	if before == after {
		t.Fatalf("expected limiter to be recreated after cleanup")
	}
}

func TestStore_JanitorStopsWithContext(t *testing.T) {
	s := NewStore(10, 1, WithIdleTTL(time.Millisecond), WithCleanupEvery(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Get(domain.Key("k"))
	s.StartJanitor(ctx)

	deadline := time.Now().Add(500 * time.Millisecond)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected janitor to remove idle entry")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestChanPool_TracksInFlight(t *testing.T) {
	p := NewChanPool(2)

	release, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected acquire ok")
	}
	if p.InFlight() != 1 || p.Capacity() != 2 {
		t.Fatalf("unexpected pool state inflight=%d cap=%d", p.InFlight(), p.Capacity())
	}
	release()
	release()
	if p.InFlight() != 0 {
		t.Fatalf("expected release to free exactly one slot, inflight=%d", p.InFlight())
	}
}

func TestChanPool_FreeSlotWinsOverCancelledContext(t *testing.T) {
	p := NewChanPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release, ok := p.Acquire(ctx)
	if !ok {
		t.Fatalf("expected free slot to be granted")
	}
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected full pool to refuse a cancelled context")
	}
	release()
}
