package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blog-gateway/internal/response"
	"blog-gateway/middleware/access"
)

// ResourceController são as operações CRUD de um recurso.
type ResourceController interface {
	List(r *http.Request) response.Envelope
	GetByID(r *http.Request) response.Envelope
	Create(r *http.Request) response.Envelope
	Update(r *http.Request) response.Envelope
	BulkUpdate(r *http.Request) response.Envelope
	Delete(r *http.Request) response.Envelope
	BulkDelete(r *http.Request) response.Envelope
}

// ResourceRoutes registra GET/POST/PUT/DELETE de um recurso em "/".
// A escolha entre caminho único e lista/bulk só acontece depois dos gates.
func ResourceRoutes(chain Chain, resource access.Resource, ctrl ResourceController) http.Handler {
	r := chi.NewRouter()
	want := func(op access.Operation) access.Request {
		return access.Request{Resource: resource, Operation: op}
	}

	r.Get("/", chain.Handle(want(access.Read), func(req *http.Request) response.Envelope {
		if req.URL.Query().Get("id") != "" {
			return ctrl.GetByID(req)
		}
		return ctrl.List(req)
	}))
	r.Post("/", chain.Handle(want(access.Create), ctrl.Create))
	r.Put("/", chain.Handle(want(access.Update), func(req *http.Request) response.Envelope {
		if isBulk(req) {
			return ctrl.BulkUpdate(req)
		}
		return ctrl.Update(req)
	}))
	r.Delete("/", chain.Handle(want(access.Delete), func(req *http.Request) response.Envelope {
		if isBulk(req) {
			return ctrl.BulkDelete(req)
		}
		return ctrl.Delete(req)
	}))
	r.MethodNotAllowed(methodNotAllowed)
	return r
}

// só "true" liga o bulk; ausente, "false" ou qualquer outro valor é caminho único
func isBulk(r *http.Request) bool {
	return r.URL.Query().Get("bulk") == "true"
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	response.Write(w, response.Format(nil, "Method not allowed", http.StatusMethodNotAllowed))
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.Write(w, response.Format(nil, "Route not found", http.StatusNotFound))
}
