package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const wsRoutingKey = "ws_events.notifications"

// Publisher receives connection lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type client struct {
	conn     *websocket.Conn
	info     ConnInfo
	send     chan []byte
	done     chan struct{}
	stopOnce sync.Once
}

func newClient(conn *websocket.Conn, info ConnInfo) *client {
	return &client{
		conn: conn,
		info: info,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Hub tracks notification sockets per user. Each socket has its own writer
// goroutine, so pushes never block the caller.
type Hub struct {
	users     map[int]map[*websocket.Conn]*client
	mu        sync.RWMutex
	log       *logger.Logger
	publisher Publisher
}

// NewHub creates an empty hub. publisher may be nil.
func NewHub(log *logger.Logger, publisher Publisher) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		users:     make(map[int]map[*websocket.Conn]*client),
		log:       log,
		publisher: publisher,
	}
}

// AddClient registers a connection for info.UserID and starts its writer.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	c := newClient(conn, info)
	h.mu.Lock()
	if _, ok := h.users[info.UserID]; !ok {
		h.users[info.UserID] = make(map[*websocket.Conn]*client)
	}
	h.users[info.UserID][conn] = c
	h.mu.Unlock()
	go h.writePump(c)
}

// RemoveClient drops a connection and stops its writer. It reports whether the connection was registered.
func (h *Hub) RemoveClient(userID int, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[userID]
	if !ok {
		return false
	}
	c, ok := conns[conn]
	if !ok {
		return false
	}
	c.stop()
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.users, userID)
	}
	return true
}

// Connections returns how many sockets the user has open.
func (h *Hub) Connections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// NotifyUser queues event for every socket of the user. A socket whose queue
// is full is closed and dropped instead of stalling the caller.
func (h *Hub) NotifyUser(userID int, event models.NotificationEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.users[userID]))
	for _, c := range h.users[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("websocket encode failed", "user_id", userID, "error", err)
		return
	}
	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("websocket send queue full", "user_id", userID, "conn_id", c.info.ConnID)
			h.drop(c, "send queue full")
		}
	}
}

// writePump is the only goroutine writing data frames to c.conn. It also keeps the socket alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Warn("websocket write failed", "user_id", c.info.UserID, "conn_id", c.info.ConnID, "error", err)
				h.drop(c, err.Error())
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.drop(c, err.Error())
				return
			}
		}
	}
}

func (h *Hub) drop(c *client, reason string) {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if h.RemoveClient(c.info.UserID, c.conn) {
		observability.DecWSActive()
		h.publishEvent(context.Background(), "ws_error", c.info, reason)
	}
	c.stop()
}

func (h *Hub) publishEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	observability.IncWSEvent(name)
	if h.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "notifications",
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": info.age(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id": info.UserID,
			"ip":      info.IP,
		},
	}
	envelope := observability.EventEnvelope{
		EventType:  "ws_events",
		EventName:  name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Headers:    observability.BuildHeaders(info.RequestID, info.TraceID),
		Payload:    payload,
	}
	if err := h.publisher.Publish(ctx, wsRoutingKey, envelope); err != nil {
		h.log.Warn("ws event publish failed", "event", name, "error", err)
	}
}
