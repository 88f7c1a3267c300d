package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationWebSocketHandler streams new-message notifications to the caller.
type NotificationWebSocketHandler struct {
	hub       *Hub
	validator middleware.TokenValidator
}

func NewNotificationWebSocketHandler(hub *Hub, validator middleware.TokenValidator) *NotificationWebSocketHandler {
	return &NotificationWebSocketHandler{hub: hub, validator: validator}
}

// Handle authenticates via the Authorization header or ?token= and upgrades the connection.
func (h *NotificationWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromContext(ctx),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conn, info)
	observability.IncWSActive()
	h.hub.publishEvent(ctx, "ws_connect", info, "")

	go h.readLoop(context.WithoutCancel(ctx), conn, info)
}

// readLoop discards client frames and extends the deadline on pongs until the socket closes.
func (h *NotificationWebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		if h.hub.RemoveClient(info.UserID, conn) {
			observability.DecWSActive()
		}
		h.hub.publishEvent(ctx, "ws_disconnect", info, closeReason)
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.hub.publishEvent(ctx, "ws_error", info, closeReason)
			}
			return
		}
	}
}
