// Package server monta o roteador HTTP: middlewares de borda, a cadeia
// rate limit → acesso → controller em cada rota de recurso, e o ciclo de
// vida do http.Server.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/access"
	"blog-gateway/middleware/stats"
)

// NotificationController são as operações do demo de push.
type NotificationController interface {
	Subscribe(r *http.Request) response.Envelope
	Unsubscribe(r *http.Request) response.Envelope
	Send(r *http.Request) response.Envelope
	PublicKey(r *http.Request) response.Envelope
}

type StatsSource interface {
	Snapshot() stats.Snapshot
}

type Deps struct {
	Logger  *zap.Logger
	Version string

	Chain       Chain
	Concurrency func(http.Handler) http.Handler

	Posts         ResourceController
	Notifications NotificationController
	Stats         StatsSource
	Health        map[string]HealthChecker
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(log.Named("http")))
	r.Use(Recovery(log))
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", healthHandler(d.Version, d.Health))

	r.Group(func(r chi.Router) {
		if d.Concurrency != nil {
			r.Use(d.Concurrency)
		}

		if d.Posts != nil {
			r.Mount("/api/posts", ResourceRoutes(d.Chain, access.ResourcePosts, d.Posts))
			r.Mount("/api/posts/v1", ResourceRoutes(d.Chain, access.ResourcePosts, d.Posts))
		}

		if n := d.Notifications; n != nil {
			r.Route("/api/notifications", func(r chi.Router) {
				r.Get("/vapid-public-key", d.Chain.Public(n.PublicKey))
				r.Post("/subscribe", d.Chain.Public(n.Subscribe))
				r.Post("/unsubscribe", d.Chain.Public(n.Unsubscribe))
				r.Post("/send", d.Chain.Handle(access.Request{
					Resource:  access.ResourceNotifications,
					Operation: access.Create,
				}, n.Send))
			})
		}

		if d.Stats != nil {
			src := d.Stats
			r.Get("/api/stats", d.Chain.Handle(access.Request{
				Resource:  access.ResourceStats,
				Operation: access.Read,
			}, func(*http.Request) response.Envelope {
				return response.Format(src.Snapshot(), "Gate statistics", http.StatusOK)
			}))
		}
	})

	return r
}
