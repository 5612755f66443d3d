package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica o chamador (IP, API key, usuário).
type Key string

// Limiter decide se uma ação é permitida agora (token bucket via x/time/rate).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave.
type LimiterStore interface {
	Get(Key) Limiter
}

// Window é o estado de uma janela fixa logo após um hit.
type Window struct {
	// Count inclui o hit atual.
	Count   int
	ResetAt time.Time
}

// WindowStore conta hits por chave em janela fixa.
//
// Hit incrementa e devolve a contagem em um único passo atômico por chave:
// duas requisições concorrentes nunca enxergam a mesma contagem.
// A janela começa no primeiro hit e só reinicia depois de ResetAt.
type WindowStore interface {
	Hit(ctx context.Context, key Key) (Window, error)
}

type Decision struct {
	Allowed bool
	// Limit/Remaining/ResetAt só são preenchidos pela janela fixa.
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter é o valor do header Retry-After quando bloquear.
	RetryAfter time.Duration
	// Err indica que o backend falhou e a decisão veio da política fail-open/closed.
	Err error
}
