package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"blog-gateway/internal/config"
)

const driverLibsql = "libsql"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC, id);`,
}

// SQLRepository guarda posts em libsql (arquivo local, :memory: ou Turso remoto).
type SQLRepository struct {
	db *sql.DB
}

// OpenSQL abre a conexão e aplica as migrações.
func OpenSQL(ctx context.Context, cfg config.StoreConfig) (*SQLRepository, error) {
	dsn, err := buildLibsqlDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverLibsql, dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql store: %w", err)
	}
	if dsn == ":memory:" {
		// cada conexão teria seu próprio banco em memória
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping libsql store: %w", err)
	}

	repo := &SQLRepository{db: db}
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (s *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLRepository) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Post, error) {
	var (
		p                Post
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &created, &updated); err != nil {
		return Post{}, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

const selectColumns = `SELECT id, title, content, author, created_at, updated_at FROM posts`

func (s *SQLRepository) List(ctx context.Context, q ListQuery) ([]Post, int, error) {
	where := ""
	var args []any
	if search := strings.TrimSpace(q.Search); search != "" {
		where = ` WHERE title LIKE ? OR content LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	out := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list posts: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return out, total, nil
}

func (s *SQLRepository) Get(ctx context.Context, id string) (Post, error) {
	return getPost(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPost(ctx context.Context, q queryer, id string) (Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Post{}, fmt.Errorf("get %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLRepository) Create(ctx context.Context, p Post) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, content, author, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Content, p.Author, p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *SQLRepository) Update(ctx context.Context, patch Patch, at time.Time) (Post, error) {
	out, err := s.UpdateMany(ctx, []Patch{patch}, at)
	if err != nil {
		return Post{}, err
	}
	return out[0], nil
}

func (s *SQLRepository) UpdateMany(ctx context.Context, patches []Patch, at time.Time) ([]Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op depois do commit

	out := make([]Post, 0, len(patches))
	for _, patch := range patches {
		cur, err := getPost(ctx, tx, patch.ID)
		if err != nil {
			return nil, fmt.Errorf("update: %w", err)
		}
		next, err := patch.apply(cur, at)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", patch.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
			next.Title, next.Content, next.UpdatedAt.UnixMilli(), next.ID); err != nil {
			return nil, fmt.Errorf("update %s: %w", patch.ID, err)
		}
		out = append(out, next)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return out, nil
}

func (s *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	total := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", id, err)
		}
		total += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return total, nil
}

func buildLibsqlDSN(cfg config.StoreConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.URL); dsn != "" {
		return addAuthToken(dsn, cfg.AuthToken)
	}

	path := strings.TrimSpace(cfg.Path)
	switch {
	case path == "":
		return "", errors.New("store path or url is required")
	case path == ":memory:", strings.HasPrefix(path, "libsql:"):
		return path, nil
	case strings.HasPrefix(path, "file:"):
		parsed, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("invalid store path: %w", err)
		}
		local := parsed.Path
		if local == "" {
			local = parsed.Opaque
		}
		if err := ensureStoreDir(strings.TrimPrefix(local, "//")); err != nil {
			return "", err
		}
		return path, nil
	}

	if err := ensureStoreDir(path); err != nil {
		return "", err
	}
	return "file:" + filepath.Clean(path), nil
}

func addAuthToken(dsn, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	query := parsed.Query()
	if query.Get("authToken") == "" {
		query.Set("authToken", token)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func ensureStoreDir(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}
