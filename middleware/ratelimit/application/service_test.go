package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"blog-gateway/middleware/ratelimit/domain"
)

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow() bool { return f.allow }

type fakeStore struct {
	lim domain.Limiter
}

func (s fakeStore) Get(domain.Key) domain.Limiter { return s.lim }

// fakeWindows devolve contagens crescentes a partir de 1.
type fakeWindows struct {
	count   int
	resetAt time.Time
	err     error
}

func (f *fakeWindows) Hit(context.Context, domain.Key) (domain.Window, error) {
	if f.err != nil {
		return domain.Window{}, f.err
	}
	f.count++
	return domain.Window{Count: f.count, ResetAt: f.resetAt}, nil
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec := svc.Decide(context.Background(), "k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsWhenLimiterAllows(t *testing.T) {
	svc := Service{Store: fakeStore{lim: fakeLimiter{allow: true}}, RetryAfter: 5 * time.Second}
	dec := svc.Decide(context.Background(), "k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
}

func TestService_Decide_BlocksWithRetryAfterDefault(t *testing.T) {
	svc := Service{Store: fakeStore{lim: fakeLimiter{allow: false}}}
	dec := svc.Decide(context.Background(), "k")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 1*time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_WindowBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	win := &fakeWindows{resetAt: now.Add(2500 * time.Millisecond)}
	svc := Service{Windows: win, Max: 3, Now: func() time.Time { return now }}

	for i := 1; i <= 3; i++ {
		dec := svc.Decide(context.Background(), "k")
		if !dec.Allowed {
			t.Fatalf("request %d: expected allowed at count <= max", i)
		}
		if dec.Remaining != 3-i {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 3-i, dec.Remaining)
		}
	}

	dec := svc.Decide(context.Background(), "k")
	if dec.Allowed {
		t.Fatalf("expected max+1 to be rejected")
	}
	if dec.Remaining != 0 || dec.Limit != 3 {
		t.Fatalf("unexpected decision: %+v", dec)
	}
	// 2.5s até o reset arredonda para 3s.
	if dec.RetryAfter != 3*time.Second {
		t.Fatalf("expected RetryAfter=3s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_WindowLimitFloor(t *testing.T) {
	svc := Service{Windows: &fakeWindows{}, Max: 0}
	if dec := svc.Decide(context.Background(), "k"); !dec.Allowed || dec.Limit != 1 {
		t.Fatalf("expected limit floor of 1, got %+v", dec)
	}
}

func TestService_Decide_BackendErrorFailOpen(t *testing.T) {
	boom := errors.New("redis down")
	svc := Service{Windows: &fakeWindows{err: boom}, Max: 1}

	dec := svc.Decide(context.Background(), "k")
	if !dec.Allowed {
		t.Fatalf("expected fail-open to allow")
	}
	if !errors.Is(dec.Err, boom) {
		t.Fatalf("expected backend error to be reported, got %v", dec.Err)
	}
}

func TestService_Decide_BackendErrorFailClosed(t *testing.T) {
	svc := Service{Windows: &fakeWindows{err: errors.New("redis down")}, Max: 1, FailClosed: true}

	dec := svc.Decide(context.Background(), "k")
	if dec.Allowed {
		t.Fatalf("expected fail-closed to block")
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected default RetryAfter, got %s", dec.RetryAfter)
	}
}
