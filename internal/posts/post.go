// Package posts implementa o recurso Posts: modelo, repositórios (memória e
// libsql) e o controller que devolve envelopes {data, message, status}.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound = errors.New("post not found")
	ErrInvalid  = errors.New("invalid post")
)

const (
	maxTitleLen   = 200
	maxContentLen = 50_000
)

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(p.Title) > maxTitleLen {
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalid, maxTitleLen)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalid)
	}
	if utf8.RuneCountInString(p.Content) > maxContentLen {
		return fmt.Errorf("%w: content longer than %d characters", ErrInvalid, maxContentLen)
	}
	return nil
}

// Patch é uma atualização parcial; campos nil ficam como estão.
type Patch struct {
	ID      string  `json:"id,omitempty"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p Patch) Empty() bool { return p.Title == nil && p.Content == nil }

func (p Patch) apply(post Post, at time.Time) (Post, error) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if err := post.Validate(); err != nil {
		return Post{}, err
	}
	post.UpdatedAt = at
	return post, nil
}

type ListQuery struct {
	Offset int
	Limit  int
	// Search filtra por título ou conteúdo (substring, sem diferenciar caixa).
	Search string
}

type Repository interface {
	// List devolve a página pedida (mais recentes primeiro) e o total filtrado.
	List(ctx context.Context, q ListQuery) ([]Post, int, error)
	Get(ctx context.Context, id string) (Post, error)
	Create(ctx context.Context, p Post) error
	Update(ctx context.Context, patch Patch, at time.Time) (Post, error)
	// UpdateMany é tudo ou nada: um id ausente cancela o lote com ErrNotFound.
	UpdateMany(ctx context.Context, patches []Patch, at time.Time) ([]Post, error)
	Delete(ctx context.Context, id string) error
	// DeleteMany ignora ids inexistentes e devolve quantos foram removidos.
	DeleteMany(ctx context.Context, ids []string) (int, error)
	Ping(ctx context.Context) error
}
