package notify

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]Subscription)}
}

func (m *MemoryStore) Save(_ context.Context, sub Subscription) error {
	m.mu.Lock()
	m.subs[sub.Endpoint] = sub
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, endpoint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[endpoint]
	delete(m.subs, endpoint)
	return ok, nil
}

func (m *MemoryStore) List(context.Context) ([]Subscription, error) {
	m.mu.RLock()
	out := make([]Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out, nil
}
