package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"convohealth-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func addClient(hub *Hub, userID uuid.UUID, buffer int) *Client {
	c := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
	hub.register <- c
	return c
}

func TestHub_SendReachesEveryDeviceOfUser(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	other := uuid.New()

	phone := addClient(hub, user, 4)
	tablet := addClient(hub, user, 4)
	stranger := addClient(hub, other, 4)

	require.Eventually(t, func() bool { return hub.Connected(user) == 2 }, time.Second, 5*time.Millisecond)

	hub.Send(user, Message{Type: "phase", Data: map[string]string{"phase": "transcribing"}})

	for _, c := range []*Client{phone, tablet} {
		select {
		case raw := <-c.Send:
			var msg struct {
				Type string            `json:"type"`
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "phase", msg.Type)
			assert.Equal(t, "transcribing", msg.Data["phase"])
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
	assert.Empty(t, stranger.Send)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()

	slow := addClient(hub, user, 1)
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.Send(user, Message{Type: "tick"})
	hub.Send(user, Message{Type: "tick"})

	assert.Equal(t, 0, hub.Connected(user))
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()

	c := addClient(hub, user, 1)
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.Connected(user) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_ClusterMessageFromOwnOriginIsIgnored(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	c := addClient(hub, user, 2)
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, time.Second, 5*time.Millisecond)

	own, _ := json.Marshal(clusterPayload{TargetUserID: user.String(), Origin: hub.origin, Message: json.RawMessage(`{"type":"x"}`)})
	foreign, _ := json.Marshal(clusterPayload{TargetUserID: user.String(), Origin: "other-node", Message: json.RawMessage(`{"type":"y"}`)})

	hub.handleClusterMessage(own)
	hub.handleClusterMessage(foreign)

	require.Len(t, c.Send, 1)
	assert.JSONEq(t, `{"type":"y"}`, string(<-c.Send))
}
