// Package notify implementa o demo de web push: guarda inscrições de
// navegadores e envia alertas via VAPID.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrNoSubscription      = errors.New("no subscription available")
	ErrDelivery            = errors.New("failed to send notification")
)

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription é o PushSubscription.toJSON() do navegador.
type Subscription struct {
	Endpoint       string `json:"endpoint"`
	ExpirationTime *int64 `json:"expirationTime,omitempty"`
	Keys           Keys   `json:"keys"`
}

func (s Subscription) Validate() error {
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("%w: endpoint must be an absolute http(s) URL", ErrInvalidSubscription)
	}
	if strings.TrimSpace(s.Keys.P256dh) == "" || strings.TrimSpace(s.Keys.Auth) == "" {
		return fmt.Errorf("%w: keys.p256dh and keys.auth are required", ErrInvalidSubscription)
	}
	return nil
}

// Store é a tabela de inscrições indexada pelo endpoint.
type Store interface {
	Save(ctx context.Context, sub Subscription) error
	// Delete devolve false quando o endpoint não existia.
	Delete(ctx context.Context, endpoint string) (bool, error)
	List(ctx context.Context) ([]Subscription, error)
}
