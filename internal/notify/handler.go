package notify

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"blog-gateway/internal/response"
)

const maxBodyBytes = 64 << 10

// Controller expõe o Service como operações que devolvem Envelope,
// no mesmo formato dos controllers de recurso.
type Controller struct {
	svc       *Service
	publicKey string
	log       *zap.Logger
}

func NewController(svc *Service, publicKey string, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{svc: svc, publicKey: publicKey, log: log}
}

type successBody struct {
	Success bool `json:"success"`
}

func (c *Controller) Subscribe(r *http.Request) response.Envelope {
	var sub Subscription
	if err := decode(r, &sub); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}
	if err := c.svc.Subscribe(r.Context(), sub); err != nil {
		return c.failure(err)
	}
	return response.Format(successBody{Success: true}, "Subscribed", http.StatusCreated)
}

func (c *Controller) Unsubscribe(r *http.Request) response.Envelope {
	var in struct {
		Endpoint string `json:"endpoint"`
	}
	if err := decode(r, &in); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}
	removed, err := c.svc.Unsubscribe(r.Context(), in.Endpoint)
	if err != nil {
		return c.failure(err)
	}
	if !removed {
		return response.Format(successBody{Success: false}, "Subscription not found", http.StatusNotFound)
	}
	return response.Format(successBody{Success: true}, "Unsubscribed", http.StatusOK)
}

func (c *Controller) Send(r *http.Request) response.Envelope {
	var in struct {
		Message string `json:"message"`
	}
	if err := decode(r, &in); err != nil {
		return response.Format(nil, "Invalid request body", http.StatusBadRequest)
	}
	if strings.TrimSpace(in.Message) == "" {
		return response.Format(nil, "Message is required", http.StatusBadRequest)
	}

	res, err := c.svc.Send(r.Context(), in.Message)
	switch {
	case errors.Is(err, ErrNoSubscription):
		return response.Format(nil, "No subscription available", http.StatusNotFound)
	case errors.Is(err, ErrDelivery):
		return response.Format(res, "Failed to send notification", http.StatusBadGateway)
	case err != nil:
		return c.failure(err)
	}
	return response.Format(res, "Notification sent", http.StatusOK)
}

// PublicKey devolve a chave VAPID pública usada pelo navegador no subscribe.
func (c *Controller) PublicKey(*http.Request) response.Envelope {
	if c.publicKey == "" {
		return response.Format(nil, "Push notifications are not configured", http.StatusServiceUnavailable)
	}
	return response.Format(map[string]string{"publicKey": c.publicKey}, "VAPID public key", http.StatusOK)
}

func (c *Controller) failure(err error) response.Envelope {
	if isClientError(err) {
		msg := err.Error()
		if i := strings.Index(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
		return response.Format(nil, msg, http.StatusBadRequest)
	}
	c.log.Error("notification store failure", zap.Error(err))
	return response.Format(nil, "Internal server error", http.StatusInternalServerError)
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return io.EOF
	}
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
