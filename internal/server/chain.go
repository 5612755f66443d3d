package server

import (
	"net/http"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/access"
)

// RateGate é o primeiro gate: nil para seguir, rejeição para encerrar.
type RateGate interface {
	Check(w http.ResponseWriter, r *http.Request) *response.Rejection
}

// AccessGate é o segundo gate; devolve o principal autorizado.
type AccessGate interface {
	Check(r *http.Request, want access.Request) (access.Principal, *response.Rejection)
}

// Operation é uma operação de controller já escolhida pela rota.
type Operation func(r *http.Request) response.Envelope

// Chain monta rate limit → acesso → controller → formatter.
// Rate nil desliga o limite; Access nil nega tudo com 401.
type Chain struct {
	Rate   RateGate
	Access AccessGate
}

func (c Chain) Handle(want access.Request, op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.Rate != nil {
			if rej := c.Rate.Check(w, r); rej != nil {
				rej.Write(w)
				return
			}
		}

		if c.Access == nil {
			response.Reject(http.StatusUnauthorized, "Authentication required").Write(w)
			return
		}
		p, rej := c.Access.Check(r, want)
		if rej != nil {
			rej.Write(w)
			return
		}

		response.Write(w, op(r.WithContext(access.WithPrincipal(r.Context(), p))))
	}
}

// Public aplica só o rate limit (rotas sem papel, como subscribe).
func (c Chain) Public(op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.Rate != nil {
			if rej := c.Rate.Check(w, r); rej != nil {
				rej.Write(w)
				return
			}
		}
		response.Write(w, op(r))
	}
}
