package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisWindowStore_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	s := NewRedisWindowStore(client, 50*time.Millisecond, WithWindowPrefix("test:rl:"))
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		w, err := s.Hit(ctx, "actor:u1")
		if err != nil {
			t.Fatalf("hit: %v", err)
		}
		if w.Count != want {
			t.Fatalf("expected count %d, got %d", want, w.Count)
		}
	}
	if !mr.Exists("test:rl:actor:u1") {
		t.Fatalf("expected prefixed key in redis")
	}

	mr.FastForward(60 * time.Millisecond)
	w, err := s.Hit(ctx, "actor:u1")
	if err != nil {
		t.Fatalf("hit after window: %v", err)
	}
	if w.Count != 1 {
		t.Fatalf("expected counter reset after window, got %d", w.Count)
	}
}

func TestRedisWindowStore_UnavailableWithoutFallbackReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  5 * time.Millisecond,
		ReadTimeout:  5 * time.Millisecond,
		WriteTimeout: 5 * time.Millisecond,
		MaxRetries:   -1,
	})
	defer func() { _ = client.Close() }()

	s := NewRedisWindowStore(client, time.Second)
	if _, err := s.Hit(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}

func TestRedisWindowStore_UnavailableUsesFallback(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  5 * time.Millisecond,
		ReadTimeout:  5 * time.Millisecond,
		WriteTimeout: 5 * time.Millisecond,
		MaxRetries:   -1,
	})
	defer func() { _ = client.Close() }()

	s := NewRedisWindowStore(client, time.Second, WithFallback(NewMemoryWindowStore(time.Second)))
	w, err := s.Hit(context.Background(), "k")
	if err != nil {
		t.Fatalf("expected fallback to hide error, got %v", err)
	}
	if w.Count != 1 {
		t.Fatalf("expected fallback count 1, got %d", w.Count)
	}
}

func TestRedisWindowStore_NilClient(t *testing.T) {
	s := NewRedisWindowStore(nil, time.Second)
	if _, err := s.Hit(context.Background(), "k"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
