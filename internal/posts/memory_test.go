package posts

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo Repository, n int) []Post {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Post, 0, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		p := Post{
			ID:        fmt.Sprintf("p%02d", i),
			Title:     fmt.Sprintf("Post %d", i),
			Content:   "body",
			Author:    "ana",
			CreatedAt: at,
			UpdatedAt: at,
		}
		require.NoError(t, repo.Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestMemoryRepository_ListNewestFirstWithPaging(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, 5)

	items, total, err := repo.List(context.Background(), ListQuery{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "p03", items[0].ID)
	assert.Equal(t, "p02", items[1].ID)

	items, _, err = repo.List(context.Background(), ListQuery{Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, _, err = repo.List(context.Background(), ListQuery{Offset: -40, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, _, err = repo.List(context.Background(), ListQuery{Offset: 4, Limit: math.MaxInt})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestMemoryRepository_ListSearch(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, 3)
	require.NoError(t, repo.Create(context.Background(), Post{ID: "go", Title: "Learning GO", Content: "x"}))

	items, total, err := repo.List(context.Background(), ListQuery{Search: "go"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "go", items[0].ID)
}

func TestMemoryRepository_CreateRejectsInvalidAndDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	assert.ErrorIs(t, repo.Create(context.Background(), Post{ID: "a", Content: "x"}), ErrInvalid)

	require.NoError(t, repo.Create(context.Background(), Post{ID: "a", Title: "t", Content: "x"}))
	assert.ErrorIs(t, repo.Create(context.Background(), Post{ID: "a", Title: "t", Content: "x"}), ErrInvalid)
}

func TestMemoryRepository_Update(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, 1)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := repo.Update(context.Background(), Patch{ID: "p00", Title: strPtr("New")}, at)
	require.NoError(t, err)
	assert.Equal(t, "New", p.Title)
	assert.Equal(t, "body", p.Content)
	assert.Equal(t, at, p.UpdatedAt)

	_, err = repo.Update(context.Background(), Patch{ID: "missing", Title: strPtr("x")}, at)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(context.Background(), Patch{ID: "p00", Title: strPtr("  ")}, at)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMemoryRepository_UpdateManyIsAllOrNothing(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, 2)
	at := time.Now().UTC()

	_, err := repo.UpdateMany(context.Background(), []Patch{
		{ID: "p00", Title: strPtr("changed")},
		{ID: "nope", Title: strPtr("changed")},
	}, at)
	require.ErrorIs(t, err, ErrNotFound)

	p, err := repo.Get(context.Background(), "p00")
	require.NoError(t, err)
	assert.Equal(t, "Post 0", p.Title)

	out, err := repo.UpdateMany(context.Background(), []Patch{
		{ID: "p00", Title: strPtr("a")},
		{ID: "p01", Content: strPtr("b")},
	}, at)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, 3)

	require.NoError(t, repo.Delete(context.Background(), "p00"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "p00"), ErrNotFound)

	n, err := repo.DeleteMany(context.Background(), []string{"p01", "p02", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, total, err := repo.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
