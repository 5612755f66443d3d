package stats

import (
	"context"
	"sync"
)

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Snapshot é a visão exportada pelo endpoint de estatísticas.
type Snapshot struct {
	Total   map[Gate]Counters   `json:"total"`
	ByRoute map[string]Counters `json:"by_route"`
	ByKey   map[string]Counters `json:"by_key,omitempty"`
	Reasons map[string]int64    `json:"reasons"`
}

// MemoryStore guarda contadores em memória, sem expiração.
type MemoryStore struct {
	mu      sync.Mutex
	total   map[Gate]Counters
	byRoute map[string]Counters
	byKey   map[string]Counters
	reasons map[string]int64

	trackKeys bool
}

type MemoryOption func(*MemoryStore)

func WithTrackKeys(track bool) MemoryOption {
	return func(s *MemoryStore) { s.trackKeys = track }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		total:   make(map[Gate]Counters),
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
		reasons: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bump(c Counters, allowed bool) Counters {
	if allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	return c
}

func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Gate] = bump(s.total[ev.Gate], ev.Allowed)
	s.byRoute[route] = bump(s.byRoute[route], ev.Allowed)
	if s.trackKeys && ev.Key != "" {
		s.byKey[ev.Key] = bump(s.byKey[ev.Key], ev.Allowed)
	}
	if !ev.Allowed && ev.Reason != "" {
		s.reasons[ev.Reason]++
	}
	return nil
}

func (s *MemoryStore) Total(g Gate) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total[g]
}

func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Total:   make(map[Gate]Counters, len(s.total)),
		ByRoute: make(map[string]Counters, len(s.byRoute)),
		Reasons: make(map[string]int64, len(s.reasons)),
	}
	for k, v := range s.total {
		out.Total[k] = v
	}
	for k, v := range s.byRoute {
		out.ByRoute[k] = v
	}
	for k, v := range s.reasons {
		out.Reasons[k] = v
	}
	if s.trackKeys {
		out.ByKey = make(map[string]Counters, len(s.byKey))
		for k, v := range s.byKey {
			out.ByKey[k] = v
		}
	}
	return out
}
