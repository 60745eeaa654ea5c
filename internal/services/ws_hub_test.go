package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub registers a client for userID through a test server and returns the client side
func dialHub(t *testing.T, hub *WSHub, userID string) *websocket.Conn {
	t.Helper()

	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not registered")
	}
	return client
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWSHubPublishReachesSubscribersOnly(t *testing.T) {
	hub := NewWSHub()
	defer hub.Close()

	alice := dialHub(t, hub, "alice")
	bob := dialHub(t, hub, "bob")
	hub.Subscribe("alice", "event-1")
	hub.Subscribe("bob", "event-2")

	hub.Publish(Notification{
		Type:    NotificationButtonStatus,
		EventID: "event-1",
		Data:    ButtonStatus{EventID: "event-1", ButtonStatus: true},
	})

	msg := readMessage(t, alice)
	assert.Equal(t, NotificationButtonStatus, msg.Type)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "event-1", data["event_id"])
	assert.Equal(t, true, data["button_status"])

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob is subscribed to another event")
}

func TestWSHubSubscribeMovesTopic(t *testing.T) {
	hub := NewWSHub()
	hub.Subscribe("alice", "event-1")
	hub.Subscribe("alice", "event-2")

	assert.Empty(t, hub.Subscribers("event-1"))
	assert.Equal(t, []string{"alice"}, hub.Subscribers("event-2"))
}

func TestWSHubSendToOfflineUser(t *testing.T) {
	hub := NewWSHub()
	assert.False(t, hub.IsOnline("ghost"))
	assert.Error(t, hub.SendToUser("ghost", WSMessage{Type: "ping"}))

	hub.Subscribe("ghost", "event-1")
	hub.Publish(Notification{Type: NotificationButtonStatus, EventID: "event-1"})
}

func TestWSHubRegisterReplacesConnection(t *testing.T) {
	hub := NewWSHub()
	defer hub.Close()

	first := dialHub(t, hub, "alice")
	second := dialHub(t, hub, "alice")
	assert.True(t, hub.IsOnline("alice"))

	require.NoError(t, hub.SendToUser("alice", WSMessage{Type: "ping"}))
	assert.Equal(t, "ping", readMessage(t, second).Type)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err, "the replaced connection is closed")
}
