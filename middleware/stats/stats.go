// Package stats registra as decisões dos gates (rate limit, acesso).
//
// O registro é best-effort: falha ao gravar nunca derruba a requisição.
package stats

import (
	"context"
	"time"
)

type Gate string

const (
	GateRateLimit Gate = "ratelimit"
	GateAccess    Gate = "access"
)

// Event representa uma decisão de um gate.
//
// Cuidado com cardinalidade: Key e Path sem controle podem explodir o número
// de chaves no Redis.
type Event struct {
	Gate    Gate
	Key     string
	Allowed bool
	// Reason é o motivo curto da rejeição (rate_limited, unauthenticated, forbidden).
	Reason string

	Method string
	Path   string

	At time.Time
}

// Store é a estratégia de persistência das estatísticas.
type Store interface {
	Record(ctx context.Context, ev Event) error
}

// Multi grava em todos os stores, devolvendo o primeiro erro.
type Multi []Store

func (m Multi) Record(ctx context.Context, ev Event) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
