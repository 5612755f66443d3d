package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(target, body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
}

func TestController_SubscribeSendUnsubscribe(t *testing.T) {
	store := NewMemoryStore()
	c := NewController(NewService(store, &fakeSender{}, nil), "pub-key", nil)

	env := c.Send(post("/api/notifications/send", `{"message":"hello"}`))
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, "No subscription available", env.Message)

	env = c.Subscribe(post("/api/notifications/subscribe",
		`{"endpoint":"https://push.example/1","expirationTime":null,"keys":{"p256dh":"k","auth":"a"}}`))
	require.Equal(t, http.StatusCreated, env.Status)
	assert.Equal(t, successBody{Success: true}, env.Data)

	env = c.Send(post("/api/notifications/send", `{"message":"hello"}`))
	require.Equal(t, http.StatusOK, env.Status)
	assert.Equal(t, Result{Delivered: 1}, env.Data)

	env = c.Unsubscribe(post("/api/notifications/unsubscribe", `{"endpoint":"https://push.example/1"}`))
	require.Equal(t, http.StatusOK, env.Status)

	subs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestController_SendDeliveryFailure(t *testing.T) {
	sender := &fakeSender{status: map[string]int{"https://push.example/1": http.StatusInternalServerError}}
	c := NewController(NewService(NewMemoryStore(), sender, nil), "", nil)
	require.Equal(t, http.StatusCreated, c.Subscribe(post("/", `{"endpoint":"https://push.example/1","keys":{"p256dh":"k","auth":"a"}}`)).Status)

	env := c.Send(post("/", `{"message":"hello"}`))
	assert.Equal(t, http.StatusBadGateway, env.Status)
	assert.Equal(t, "Failed to send notification", env.Message)
}

func TestController_BadInput(t *testing.T) {
	c := NewController(NewService(NewMemoryStore(), &fakeSender{}, nil), "", nil)

	assert.Equal(t, http.StatusBadRequest, c.Subscribe(post("/", `{`)).Status)
	env := c.Subscribe(post("/", `{"endpoint":"ftp://x","keys":{"p256dh":"k","auth":"a"}}`))
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Equal(t, "endpoint must be an absolute http(s) URL", env.Message)

	assert.Equal(t, http.StatusBadRequest, c.Send(post("/", `{"message":"  "}`)).Status)
	assert.Equal(t, http.StatusBadRequest, c.Unsubscribe(post("/", `{}`)).Status)
	assert.Equal(t, http.StatusServiceUnavailable, c.PublicKey(nil).Status)
}
