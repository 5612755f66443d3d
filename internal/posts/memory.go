package posts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	posts map[string]Post
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[string]Post)}
}

func (m *MemoryRepository) List(_ context.Context, q ListQuery) ([]Post, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]Post, 0, len(m.posts))
	for _, p := range m.posts {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Content), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if q.Offset < 0 || q.Offset >= total {
		return []Post{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Limit < end-q.Offset {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return Post{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *MemoryRepository) Create(_ context.Context, p Post) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.posts[p.ID]; exists {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalid, p.ID)
	}
	m.posts[p.ID] = p
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, patch Patch, at time.Time) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.posts[patch.ID]
	if !ok {
		return Post{}, fmt.Errorf("update %s: %w", patch.ID, ErrNotFound)
	}
	next, err := patch.apply(cur, at)
	if err != nil {
		return Post{}, err
	}
	m.posts[patch.ID] = next
	return next, nil
}

func (m *MemoryRepository) UpdateMany(_ context.Context, patches []Patch, at time.Time) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// valida tudo antes de gravar qualquer coisa
	staged := make(map[string]Post, len(patches))
	out := make([]Post, 0, len(patches))
	for _, patch := range patches {
		cur, ok := staged[patch.ID]
		if !ok {
			cur, ok = m.posts[patch.ID]
		}
		if !ok {
			return nil, fmt.Errorf("update %s: %w", patch.ID, ErrNotFound)
		}
		next, err := patch.apply(cur, at)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", patch.ID, err)
		}
		staged[patch.ID] = next
		out = append(out, next)
	}
	for id, p := range staged {
		m.posts[id] = p
	}
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

func (m *MemoryRepository) DeleteMany(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range ids {
		if _, ok := m.posts[id]; ok {
			delete(m.posts, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Ping(context.Context) error { return nil }
