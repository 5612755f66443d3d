package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Sender entrega um payload a uma inscrição e devolve o status HTTP do push service.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) (int, error)
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	// Subscriber é o contato exigido pelo VAPID (mailto: ou https:).
	Subscriber string
	TTL        int
}

type WebPushSender struct {
	cfg    VAPIDConfig
	client webpush.HTTPClient
}

func NewWebPushSender(cfg VAPIDConfig, client *http.Client) *WebPushSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushSender{cfg: cfg, client: client}
}

func (s *WebPushSender) Send(ctx context.Context, sub Subscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return 0, fmt.Errorf("webpush: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("webpush: push service answered %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// GenerateVAPIDKeys devolve (public, private) em base64url.
func GenerateVAPIDKeys() (string, string, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", err
	}
	return pub, priv, nil
}
