package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/telemetry"
)

// ConnectionCounter reports open notification sockets per user.
type ConnectionCounter interface {
	Connections(userID int) int
}

// RegisterDebugRoutes wires debug-only endpoints. Nothing is mounted unless enabled.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, sockets ConnectionCounter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		text := strings.TrimSpace(c.Query("text"))
		if text == "" {
			text = "audit test"
		}
		requestID, userID := auditIdentity(c)
		emitter.Emit(c.Request.Context(), "INFO", text, requestID, userID)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestID})
	})

	router.GET("/debug/sockets/:user_id", func(c *gin.Context) {
		if sockets == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "websocket hub not configured"})
			return
		}
		userID, ok := pathID(c, "user_id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "connections": sockets.Connections(userID)})
	})
}
