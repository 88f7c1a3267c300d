package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

type staticValidator map[string]int

func (v staticValidator) ValidateToken(_ context.Context, token string) (int, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return 0, errors.New("unknown token")
}

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/notifications", NewNotificationWebSocketHandler(hub, staticValidator{"alice": 1, "bob": 2}).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications" + query
	return websocket.DefaultDialer.Dial(url, header)
}

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub(nil, nil)

	hub.AddClient(nil, ConnInfo{UserID: 1})
	assert.Equal(t, 1, hub.Connections(1))

	assert.True(t, hub.RemoveClient(1, nil))
	assert.Equal(t, 0, hub.Connections(1))
	assert.Empty(t, hub.users)
	assert.False(t, hub.RemoveClient(1, nil))
}

func TestNotifyUserWithoutConnections(t *testing.T) {
	hub := NewHub(nil, nil)
	assert.NotPanics(t, func() {
		hub.NotifyUser(5, models.NotificationEvent{Type: "notification"})
	})
}

func TestNotifyUserDropsClientWithFullQueue(t *testing.T) {
	hub := NewHub(nil, nil)
	slow := newClient(nil, ConnInfo{UserID: 7, ConnID: "slow"})
	hub.users[7] = map[*websocket.Conn]*client{nil: slow}
	for i := 0; i < sendBuffer; i++ {
		slow.send <- []byte("queued")
	}

	start := time.Now()
	hub.NotifyUser(7, models.NotificationEvent{Type: "notification"})

	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 0, hub.Connections(7))
	select {
	case <-slow.done:
	default:
		t.Fatal("dropped client was not stopped")
	}
}

func TestRemoveClientStopsWriter(t *testing.T) {
	hub := NewHub(nil, nil)
	c := newClient(nil, ConnInfo{UserID: 3})
	hub.users[3] = map[*websocket.Conn]*client{nil: c}

	finished := make(chan struct{})
	go func() {
		hub.writePump(c)
		close(finished)
	}()

	require.True(t, hub.RemoveClient(3, nil))
	require.Eventually(t, func() bool {
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNotificationSocketDeliversToRecipientOnly(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, wsRoutingKey, mock.Anything).Return(nil)
	hub := NewHub(nil, pub)
	srv := startServer(t, hub)

	bob, _, err := dial(t, srv, "?token=bob", nil)
	require.NoError(t, err)
	defer bob.Close()
	header := http.Header{}
	header.Set("Authorization", "Bearer alice")
	alice, _, err := dial(t, srv, "", header)
	require.NoError(t, err)
	defer alice.Close()

	require.Eventually(t, func() bool {
		return hub.Connections(1) == 1 && hub.Connections(2) == 1
	}, time.Second, 10*time.Millisecond)

	hub.NotifyUser(2, models.NotificationEvent{
		Type:         "notification",
		Notification: &models.Notification{ID: 3, RecipientID: 2, MessageID: 8},
		Message:      &models.Message{ID: 8, SenderID: 1, ReceiverID: 2, Content: "Hi"},
	})

	var got models.NotificationEvent
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, bob.ReadJSON(&got))
	assert.Equal(t, "notification", got.Type)
	require.NotNil(t, got.Message)
	assert.Equal(t, "Hi", got.Message.Content)

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = alice.ReadMessage()
	assert.Error(t, err)

	require.NoError(t, bob.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return hub.Connections(2) == 0 }, time.Second, 10*time.Millisecond)
}

func TestNotificationSocketRejectsBadToken(t *testing.T) {
	srv := startServer(t, NewHub(nil, nil))

	_, resp, err := dial(t, srv, "?token=mallory", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
