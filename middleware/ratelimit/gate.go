package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/ratelimit/application"
	"blog-gateway/middleware/ratelimit/domain"
	"blog-gateway/middleware/stats"
)

// MissingKeyPolicy define o que fazer quando a identidade não pode ser extraída.
type MissingKeyPolicy string

const (
	// MissingKeyDeny rejeita com 400 (fail closed). Padrão.
	MissingKeyDeny MissingKeyPolicy = "deny"
	// MissingKeyAllow deixa passar sem contar (fail open).
	MissingKeyAllow MissingKeyPolicy = "allow"
	// MissingKeyShared coloca todos os não identificados no mesmo balde.
	MissingKeyShared MissingKeyPolicy = "shared"
)

const sharedKey = "unidentified"

type Options struct {
	// Windows (janela fixa) tem precedência sobre Store (token bucket).
	Windows     domain.WindowStore
	MaxRequests int
	Store       domain.LimiterStore

	Stats  stats.Store
	Logger *zap.Logger

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	MissingKey         MissingKeyPolicy

	RejectStatus        int
	RetryAfter          time.Duration
	FailClosed          bool
	AddRateLimitHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// Gate é o primeiro gate da cadeia de cada rota.
type Gate struct {
	opts Options
	svc  application.Service
	log  *zap.Logger
}

func NewGate(opts Options) *Gate {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.MissingKey == "" {
		opts.MissingKey = MissingKeyDeny
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Gate{
		opts: opts,
		log:  log.Named("ratelimit"),
		svc: application.Service{
			Store:      opts.Store,
			Windows:    opts.Windows,
			Max:        opts.MaxRequests,
			RetryAfter: opts.RetryAfter,
			FailClosed: opts.FailClosed,
		},
	}
}

// Check devolve nil para seguir ou a rejeição a ser escrita.
// Headers informativos (X-RateLimit-*) são escritos em w quando habilitados.
func (g *Gate) Check(w http.ResponseWriter, r *http.Request) *response.Rejection {
	key := g.opts.KeyFn(r)
	if key == "" {
		switch g.opts.MissingKey {
		case MissingKeyAllow:
			g.record(r, key, true, "")
			return nil
		case MissingKeyShared:
			key = sharedKey
		default:
			g.record(r, key, false, "missing_identity")
			g.log.Debug("request without client identity rejected", zap.String("path", r.URL.Path))
			return response.Reject(http.StatusBadRequest, "Client identity could not be determined")
		}
	}

	dec := g.svc.Decide(r.Context(), domain.Key(key))
	if dec.Err != nil {
		g.log.Warn("rate limit backend failure",
			zap.String("key", key),
			zap.Bool("fail_closed", g.opts.FailClosed),
			zap.Error(dec.Err))
	}

	if g.opts.AddRateLimitHeaders {
		g.setHeaders(w.Header(), key, dec)
	}

	if dec.Allowed {
		g.record(r, key, true, "")
		return nil
	}

	g.record(r, key, false, "rate_limited")
	secs := retryAfterSeconds(dec.RetryAfter)
	g.log.Debug("rate limit exceeded", zap.String("key", key), zap.Int("retry_after", secs))

	rej := response.Reject(g.opts.RejectStatus, fmt.Sprintf("Too many requests, retry after %d seconds", secs))
	rej.Header.Set("Retry-After", strconv.Itoa(secs))
	return rej
}

// retryAfterSeconds arredonda para cima: Retry-After nunca sai 0.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

func (g *Gate) setHeaders(h http.Header, key string, dec domain.Decision) {
	h.Set("X-RateLimit-Key", key)
	if g.opts.Windows != nil {
		h.Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		if !dec.ResetAt.IsZero() {
			h.Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.Unix(), 10))
		}
		return
	}
	if ri, ok := g.opts.Store.(rateInfo); ok {
		h.Set("X-RateLimit-RPS", strconv.FormatFloat(ri.RPS(), 'f', -1, 64))
		h.Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
	}
}

func (g *Gate) record(r *http.Request, key string, allowed bool, reason string) {
	if g.opts.Stats == nil {
		return
	}
	err := g.opts.Stats.Record(context.WithoutCancel(r.Context()), stats.Event{
		Gate:    stats.GateRateLimit,
		Key:     key,
		Allowed: allowed,
		Reason:  reason,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
	if err != nil {
		g.log.Debug("stats record failed", zap.Error(err))
	}
}

// Middleware aplica o gate antes de next (rotas sem checagem de acesso).
func Middleware(opts Options) func(next http.Handler) http.Handler {
	g := NewGate(opts)
	return g.Middleware
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rej := g.Check(w, r); rej != nil {
			rej.Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
