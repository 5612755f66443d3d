package ratelimit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/ratelimit/infra"
	"blog-gateway/middleware/stats"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func doGet(h http.Handler, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/api/posts", nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_TokenBucketAllowsThenRejectsSameKey(t *testing.T) {
	calls := 0
	h := Middleware(Options{
		Store:               infra.NewStore(0.02, 1),
		RetryAfter:          1 * time.Second,
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	w1 := doGet(h, "10.0.0.1:1234")
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if w1.Header().Get("X-RateLimit-Key") == "" || w1.Header().Get("X-RateLimit-RPS") == "" || w1.Header().Get("X-RateLimit-Burst") == "" {
		t.Fatalf("expected token bucket headers, got %v", w1.Header())
	}

	w2 := doGet(h, "10.0.0.1:1234")
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header to be set")
	}

	var env response.Envelope
	if err := json.Unmarshal(w2.Body.Bytes(), &env); err != nil {
		t.Fatalf("expected json envelope: %v", err)
	}
	if env.Status != http.StatusTooManyRequests || !strings.Contains(env.Message, "retry after") {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	calls := 0
	h := Middleware(Options{
		Store:     infra.NewStore(0.02, 1),
		KeyHeader: "X-Api-Key",
	})(okHandler(&calls))

	// chaves diferentes, mesmo IP: cada chave tem o seu limiter
	for _, key := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", key)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", key, w.Code)
		}
	}
}

func TestMiddleware_RetryAfterRoundsUp(t *testing.T) {
	cases := []struct {
		retry time.Duration
		want  string
	}{
		{2500 * time.Millisecond, "3"},
		{2 * time.Second, "2"},
		{200 * time.Millisecond, "1"},
	}
	for _, tc := range cases {
		calls := 0
		h := Middleware(Options{
			Store:      infra.NewStore(0.02, 1),
			RetryAfter: tc.retry,
		})(okHandler(&calls))

		_ = doGet(h, "10.0.0.1:1234")
		w2 := doGet(h, "10.0.0.1:1234")
		if w2.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", w2.Code)
		}
		if got := strings.TrimSpace(w2.Header().Get("Retry-After")); got != tc.want {
			t.Fatalf("retry %s: expected Retry-After=%s, got %q", tc.retry, tc.want, got)
		}
		if !strings.Contains(w2.Body.String(), "retry after "+tc.want+" seconds") {
			t.Fatalf("retry %s: unexpected body %s", tc.retry, w2.Body.String())
		}
	}
}

func TestGate_FixedWindowBoundary(t *testing.T) {
	const max = 3
	calls := 0
	g := NewGate(Options{
		Windows:             infra.NewMemoryWindowStore(time.Minute),
		MaxRequests:         max,
		AddRateLimitHeaders: true,
	})
	h := g.Middleware(okHandler(&calls))

	for i := 1; i <= max; i++ {
		w := doGet(h, "10.0.0.1:1234")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 at count <= max, got %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(max-i) {
			t.Fatalf("request %d: expected remaining %d, got %q", i, max-i, got)
		}
	}

	w := doGet(h, "10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 at max+1, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "3" || w.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected window headers on rejection, got %v", w.Header())
	}
	if got := w.Header().Get("Retry-After"); got == "" || got == "0" {
		t.Fatalf("expected positive Retry-After, got %q", got)
	}
	if calls != max {
		t.Fatalf("expected %d calls to next, got %d", max, calls)
	}

	// outro cliente não é afetado
	if w := doGet(h, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("expected other identity to pass, got %d", w.Code)
	}
}

func TestGate_MissingKeyPolicies(t *testing.T) {
	noKey := func(*http.Request) string { return "" }

	t.Run("deny", func(t *testing.T) {
		calls := 0
		h := Middleware(Options{Windows: infra.NewMemoryWindowStore(time.Minute), MaxRequests: 5, KeyFn: noKey})(okHandler(&calls))
		if w := doGet(h, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if calls != 0 {
			t.Fatalf("expected next not called")
		}
	})

	t.Run("allow", func(t *testing.T) {
		calls := 0
		h := Middleware(Options{Windows: infra.NewMemoryWindowStore(time.Minute), MaxRequests: 1, KeyFn: noKey, MissingKey: MissingKeyAllow})(okHandler(&calls))
		for i := 0; i < 3; i++ {
			if w := doGet(h, ""); w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
		}
	})

	t.Run("shared", func(t *testing.T) {
		calls := 0
		h := Middleware(Options{Windows: infra.NewMemoryWindowStore(time.Minute), MaxRequests: 1, KeyFn: noKey, MissingKey: MissingKeyShared})(okHandler(&calls))
		if w := doGet(h, ""); w.Code != http.StatusOK {
			t.Fatalf("expected first shared request 200, got %d", w.Code)
		}
		if w := doGet(h, ""); w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected shared bucket exhausted, got %d", w.Code)
		}
	})
}

func TestGate_RecordsStats(t *testing.T) {
	mem := stats.NewMemoryStore()
	calls := 0
	h := Middleware(Options{
		Windows:     infra.NewMemoryWindowStore(time.Minute),
		MaxRequests: 1,
		Stats:       mem,
	})(okHandler(&calls))

	_ = doGet(h, "10.0.0.1:1")
	_ = doGet(h, "10.0.0.1:1")

	got := mem.Total(stats.GateRateLimit)
	if got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	if mem.Snapshot().Reasons["rate_limited"] != 1 {
		t.Fatalf("expected rate_limited reason recorded")
	}
}
