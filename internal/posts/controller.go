package posts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/access"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBulkItems    = 100
	maxBodyBytes    = 1 << 20
)

// Controller executa as operações de Posts e sempre responde com um Envelope.
// Status do envelope é o que vai para o cliente sem alteração.
type Controller struct {
	repo  Repository
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

type ControllerOption func(*Controller)

func WithLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(fn func() string) ControllerOption {
	return func(c *Controller) { c.newID = fn }
}

func NewController(repo Repository, opts ...ControllerOption) *Controller {
	c := &Controller{
		repo:  repo,
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Page struct {
	Items []Post `json:"items"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int    `json:"total"`
}

func (c *Controller) List(r *http.Request) response.Envelope {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil || page < 1 {
		return response.Format(nil, "Invalid page parameter", http.StatusBadRequest)
	}
	limit, err := queryInt(q.Get("limit"), defaultPageSize)
	if err != nil || limit < 1 {
		return response.Format(nil, "Invalid limit parameter", http.StatusBadRequest)
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	// (page-1)*limit não pode estourar int
	if page > math.MaxInt/limit {
		return response.Format(nil, "Invalid page parameter", http.StatusBadRequest)
	}

	items, total, err := c.repo.List(r.Context(), ListQuery{
		Offset: (page - 1) * limit,
		Limit:  limit,
		Search: q.Get("q"),
	})
	if err != nil {
		return c.failure(r, "list", err)
	}
	return response.Format(Page{Items: items, Page: page, Limit: limit, Total: total}, "Posts retrieved", http.StatusOK)
}

func (c *Controller) GetByID(r *http.Request) response.Envelope {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		return response.Format(nil, "Post id is required", http.StatusBadRequest)
	}
	p, err := c.repo.Get(r.Context(), id)
	if err != nil {
		return c.failure(r, "get", err)
	}
	return response.Format(p, "Post retrieved", http.StatusOK)
}

type createRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (c *Controller) Create(r *http.Request) response.Envelope {
	var in createRequest
	if err := decodeBody(r, &in); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}

	author := strings.TrimSpace(in.Author)
	// autor autenticado prevalece sobre o informado no corpo
	if p, ok := access.PrincipalFromContext(r.Context()); ok && p.Subject != "" {
		author = p.Subject
	}

	now := c.now()
	post := Post{
		ID:        c.newID(),
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.repo.Create(r.Context(), post); err != nil {
		return c.failure(r, "create", err)
	}
	return response.Format(post, "Post created", http.StatusCreated)
}

// Update aplica um Patch ao post do parâmetro id (ou do id no corpo).
func (c *Controller) Update(r *http.Request) response.Envelope {
	var patch Patch
	if err := decodeBody(r, &patch); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		patch.ID = id
	}
	if patch.ID == "" {
		return response.Format(nil, "Post id is required", http.StatusBadRequest)
	}
	if patch.Empty() {
		return response.Format(nil, "Nothing to update", http.StatusBadRequest)
	}

	p, err := c.repo.Update(r.Context(), patch, c.now())
	if err != nil {
		return c.failure(r, "update", err)
	}
	return response.Format(p, "Post updated", http.StatusOK)
}

// BulkUpdate recebe um array de patches e aplica todos ou nenhum.
func (c *Controller) BulkUpdate(r *http.Request) response.Envelope {
	var patches []Patch
	if err := decodeBody(r, &patches); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}
	if len(patches) == 0 {
		return response.Format(nil, "No posts to update", http.StatusBadRequest)
	}
	if len(patches) > maxBulkItems {
		return response.Format(nil, fmt.Sprintf("At most %d posts per bulk request", maxBulkItems), http.StatusBadRequest)
	}
	for _, p := range patches {
		if strings.TrimSpace(p.ID) == "" || p.Empty() {
			return response.Format(nil, "Every item needs an id and at least one field", http.StatusBadRequest)
		}
	}

	updated, err := c.repo.UpdateMany(r.Context(), patches, c.now())
	if err != nil {
		return c.failure(r, "bulk update", err)
	}
	return response.Format(updated, fmt.Sprintf("%d posts updated", len(updated)), http.StatusOK)
}

func (c *Controller) Delete(r *http.Request) response.Envelope {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		var body struct {
			ID string `json:"id"`
		}
		if r.ContentLength != 0 {
			if err := decodeBody(r, &body); err != nil {
				return response.Format(nil, "Invalid request body", http.StatusBadRequest)
			}
		}
		id = strings.TrimSpace(body.ID)
	}
	if id == "" {
		return response.Format(nil, "Post id is required", http.StatusBadRequest)
	}

	if err := c.repo.Delete(r.Context(), id); err != nil {
		return c.failure(r, "delete", err)
	}
	return response.Format(map[string]string{"id": id}, "Post deleted", http.StatusOK)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (c *Controller) BulkDelete(r *http.Request) response.Envelope {
	var in bulkDeleteRequest
	if err := decodeBody(r, &in); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}
	ids := make([]string, 0, len(in.IDs))
	for _, id := range in.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return response.Format(nil, "No posts to delete", http.StatusBadRequest)
	}
	if len(ids) > maxBulkItems {
		return response.Format(nil, fmt.Sprintf("At most %d posts per bulk request", maxBulkItems), http.StatusBadRequest)
	}

	n, err := c.repo.DeleteMany(r.Context(), ids)
	if err != nil {
		return c.failure(r, "bulk delete", err)
	}
	if n == 0 {
		return response.Format(map[string]int{"deleted": 0}, "No posts found", http.StatusNotFound)
	}
	return response.Format(map[string]int{"deleted": n}, fmt.Sprintf("%d posts deleted", n), http.StatusOK)
}

// failure traduz erros do repositório em envelope.
func (c *Controller) failure(r *http.Request, op string, err error) response.Envelope {
	switch {
	case errors.Is(err, ErrNotFound):
		return response.Format(nil, "Post not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalid):
		return response.Format(nil, validationMessage(err), http.StatusBadRequest)
	}
	c.log.Error("posts storage failure",
		zap.String("op", op),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	return response.Format(nil, "Internal server error", http.StatusInternalServerError)
}

// validationMessage devolve só o detalhe depois de "invalid post: ".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ErrInvalid.Error()+": "); i >= 0 {
		msg = msg[i+len(ErrInvalid.Error())+2:]
	}
	if msg == "" {
		return "Invalid post"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
