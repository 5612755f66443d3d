package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Alert é o payload lido pelo service worker.
type Alert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
}

func NewAlert(message string) Alert {
	return Alert{Title: "New Alert", Body: message, Icon: "/icon.png"}
}

type Result struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	// Expired conta endpoints removidos (404/410 do push service).
	Expired int `json:"expired"`
}

type Service struct {
	store  Store
	sender Sender
	log    *zap.Logger
}

func NewService(store Store, sender Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, sender: sender, log: log}
}

func (s *Service) Subscribe(ctx context.Context, sub Subscription) error {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	if err := sub.Validate(); err != nil {
		return err
	}
	return s.store.Save(ctx, sub)
}

func (s *Service) Unsubscribe(ctx context.Context, endpoint string) (bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return false, fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription)
	}
	return s.store.Delete(ctx, endpoint)
}

// Send envia a mensagem para todas as inscrições. Falha com ErrNoSubscription
// se não houver nenhuma e com ErrDelivery se nenhuma entrega der certo.
func (s *Service) Send(ctx context.Context, message string) (Result, error) {
	subs, err := s.store.List(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(subs) == 0 {
		return Result{}, ErrNoSubscription
	}

	payload, err := json.Marshal(NewAlert(message))
	if err != nil {
		return Result{}, fmt.Errorf("encode alert: %w", err)
	}

	var res Result
	for _, sub := range subs {
		status, err := s.sender.Send(ctx, sub, payload)
		if err == nil {
			res.Delivered++
			continue
		}
		if status == http.StatusNotFound || status == http.StatusGone {
			res.Expired++
			if _, derr := s.store.Delete(ctx, sub.Endpoint); derr != nil {
				s.log.Warn("failed to prune expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(derr))
			}
			continue
		}
		res.Failed++
		s.log.Warn("push delivery failed",
			zap.String("endpoint", sub.Endpoint),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	if res.Delivered == 0 {
		return res, ErrDelivery
	}
	return res, nil
}

func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidSubscription)
}
