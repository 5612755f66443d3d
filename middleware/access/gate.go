package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/stats"
)

type Outcome uint8

const (
	Allowed Outcome = iota
	Unauthenticated
	Forbidden
)

type Decision struct {
	Outcome   Outcome
	Principal Principal
	Message   string
}

func (d Decision) Status() int {
	switch d.Outcome {
	case Allowed:
		return http.StatusOK
	case Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

func (d Decision) reason() string {
	switch d.Outcome {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return ""
}

type Gate struct {
	matrix   Matrix
	resolver Resolver
	stats    stats.Store
	log      *zap.Logger
}

type Option func(*Gate)

func WithStats(s stats.Store) Option {
	return func(g *Gate) { g.stats = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.log = l.Named("access")
		}
	}
}

func NewGate(m Matrix, resolver Resolver, opts ...Option) *Gate {
	g := &Gate{matrix: m, resolver: resolver, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide resolve o papel e consulta a matriz. Não escreve nada.
func (g *Gate) Decide(ctx context.Context, r *http.Request, want Request) Decision {
	if g.resolver == nil {
		return Decision{Outcome: Unauthenticated, Message: "Authentication required"}
	}
	p, err := g.resolver.Resolve(ctx, r)
	if err != nil {
		if !errors.Is(err, ErrUnauthenticated) {
			g.log.Warn("role resolution failed", zap.Error(err))
		}
		return Decision{Outcome: Unauthenticated, Message: "Authentication required"}
	}

	for _, role := range p.Roles {
		if g.matrix.Allowed(role, want) {
			return Decision{Outcome: Allowed, Principal: p}
		}
	}
	return Decision{
		Outcome:   Forbidden,
		Principal: p,
		Message:   fmt.Sprintf("Role %s is not allowed to %s %s", rolesLabel(p.Roles), want.Operation, want.Resource),
	}
}

// Check devolve o principal autorizado, ou a rejeição (401/403) a ser escrita.
func (g *Gate) Check(r *http.Request, want Request) (Principal, *response.Rejection) {
	dec := g.Decide(r.Context(), r, want)
	g.record(r, dec)

	if dec.Outcome == Allowed {
		return dec.Principal, nil
	}
	g.log.Debug("access denied",
		zap.String("want", want.String()),
		zap.String("subject", dec.Principal.Subject),
		zap.String("reason", dec.reason()))

	rej := response.Reject(dec.Status(), dec.Message)
	if dec.Outcome == Unauthenticated {
		rej.Header.Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	return Principal{}, rej
}

// Require protege um handler inteiro com um único Request.
func (g *Gate) Require(want Request) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, rej := g.Check(r, want)
			if rej != nil {
				rej.Write(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func (g *Gate) record(r *http.Request, dec Decision) {
	if g.stats == nil {
		return
	}
	err := g.stats.Record(context.WithoutCancel(r.Context()), stats.Event{
		Gate:    stats.GateAccess,
		Key:     dec.Principal.Subject,
		Allowed: dec.Outcome == Allowed,
		Reason:  dec.reason(),
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
	if err != nil {
		g.log.Debug("stats record failed", zap.Error(err))
	}
}

func rolesLabel(roles []Role) string {
	if len(roles) == 1 {
		return string(roles[0])
	}
	return fmt.Sprintf("%v", roles)
}
