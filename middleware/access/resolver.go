package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated indica que o papel do chamador não pôde ser resolvido.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver é o colaborador de autenticação: descobre quem está chamando.
// Pode fazer I/O; por isso recebe ctx.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) (Principal, error)
}

type ResolverFunc func(ctx context.Context, r *http.Request) (Principal, error)

func (f ResolverFunc) Resolve(ctx context.Context, r *http.Request) (Principal, error) {
	return f(ctx, r)
}

// Claims do JWT HS256 aceito pelo gateway.
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) principal() Principal {
	p := Principal{Subject: c.Subject}
	if c.Role != "" {
		p.Roles = append(p.Roles, Role(c.Role))
	}
	for _, r := range c.Roles {
		if r = strings.TrimSpace(r); r != "" {
			p.Roles = append(p.Roles, Role(r))
		}
	}
	return p
}

type JWTResolver struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTResolver(secret, issuer, audience string) *JWTResolver {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTResolver{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

func (j *JWTResolver) Resolve(_ context.Context, r *http.Request) (Principal, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return Principal{}, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	var claims Claims
	_, err := j.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	p := claims.principal()
	if len(p.Roles) == 0 {
		return Principal{}, fmt.Errorf("%w: token carries no role", ErrUnauthenticated)
	}
	return p, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

// SignToken emite um JWT HS256 com o papel informado.
func SignToken(secret string, subject string, role Role, ttl time.Duration, issuer, audience string) (string, error) {
	if secret == "" {
		return "", errors.New("sign token: secret is required")
	}
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// HeaderResolver confia em um header com papéis separados por vírgula.
// Só para desenvolvimento ou atrás de um proxy que já autenticou.
type HeaderResolver struct {
	Header        string
	SubjectHeader string
}

func (h HeaderResolver) Resolve(_ context.Context, r *http.Request) (Principal, error) {
	name := h.Header
	if name == "" {
		name = "X-User-Role"
	}
	var p Principal
	for _, part := range strings.Split(r.Header.Get(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			p.Roles = append(p.Roles, Role(part))
		}
	}
	if len(p.Roles) == 0 {
		return Principal{}, fmt.Errorf("%w: %s header missing", ErrUnauthenticated, name)
	}
	if h.SubjectHeader != "" {
		p.Subject = strings.TrimSpace(r.Header.Get(h.SubjectHeader))
	}
	return p, nil
}

// StaticResolver atribui o mesmo papel a todos (autenticação desligada).
// Subject fica vazio: ninguém foi autenticado.
type StaticResolver struct {
	Role Role
}

func (s StaticResolver) Resolve(context.Context, *http.Request) (Principal, error) {
	if s.Role == "" {
		return Principal{}, fmt.Errorf("%w: no static role configured", ErrUnauthenticated)
	}
	return Principal{Roles: []Role{s.Role}}, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
