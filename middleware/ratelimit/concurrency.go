package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/ratelimit/application"
	"blog-gateway/middleware/ratelimit/domain"
	"blog-gateway/middleware/ratelimit/infra"
)

var ErrSaturated = errors.New("all concurrency slots are in use")

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo padrão (testes).
	Pool domain.SlotPool
}

// Concurrency limita requisições em voo. Zero value (ou Max <= 0 sem Pool) não limita nada.
type Concurrency struct {
	svc          application.ConcurrencyService
	rejectStatus int
}

func NewConcurrency(opts ConcurrencyOptions) *Concurrency {
	if opts.Max <= 0 && opts.Pool == nil {
		return &Concurrency{}
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	return &Concurrency{
		svc: application.ConcurrencyService{
			Pool:           opts.Pool,
			AcquireTimeout: opts.AcquireTimeout,
		},
		rejectStatus: opts.RejectStatus,
	}
}

func (c *Concurrency) Middleware(next http.Handler) http.Handler {
	if c.svc.Pool == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, err := c.svc.Acquire(r.Context())
		if err != nil {
			response.Reject(c.rejectStatus, "Server is busy, try again later").Write(w)
			return
		}
		defer release()

		next.ServeHTTP(w, r)
	})
}

// CheckHealth falha enquanto todas as vagas estiverem ocupadas.
func (c *Concurrency) CheckHealth(context.Context) error {
	occ := c.svc.Occupancy()
	if occ.Saturated() {
		return fmt.Errorf("%w (%d/%d)", ErrSaturated, occ.InFlight, occ.Capacity)
	}
	return nil
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	return NewConcurrency(opts).Middleware
}
