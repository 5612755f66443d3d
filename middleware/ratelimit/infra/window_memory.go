package infra

import (
	"context"
	"sync"
	"time"

	"blog-gateway/middleware/ratelimit/domain"
)

// MemoryWindowStore conta hits em janela fixa, em memória do processo.
// O mutex torna o incremento+leitura atômico por chave.
type MemoryWindowStore struct {
	mu           sync.Mutex
	window       time.Duration
	items        map[string]windowEntry
	cleanupEvery time.Duration
	now          func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

type WindowOption func(*MemoryWindowStore)

func WithWindowCleanupEvery(d time.Duration) WindowOption {
	return func(s *MemoryWindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) WindowOption {
	return func(s *MemoryWindowStore) { s.now = now }
}

func NewMemoryWindowStore(window time.Duration, opts ...WindowOption) *MemoryWindowStore {
	if window <= 0 {
		window = time.Minute
	}
	s := &MemoryWindowStore{
		window:       window,
		items:        make(map[string]windowEntry),
		cleanupEvery: time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryWindowStore) Window() time.Duration { return s.window }

// Hit implementa domain.WindowStore.
func (s *MemoryWindowStore) Hit(_ context.Context, key domain.Key) (domain.Window, error) {
	now := s.now()
	k := string(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	curr, ok := s.items[k]
	if !ok || !now.Before(curr.resetAt) {
		curr = windowEntry{resetAt: now.Add(s.window)}
	}
	curr.count++
	s.items[k] = curr

	return domain.Window{Count: curr.count, ResetAt: curr.resetAt}, nil
}

func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Cleanup remove janelas já vencidas.
func (s *MemoryWindowStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.items {
		if !now.Before(v.resetAt) {
			delete(s.items, k)
		}
	}
}

func (s *MemoryWindowStore) StartJanitor(ctx context.Context) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}
