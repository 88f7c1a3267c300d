package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
)

// auditIdentity resolves the request id and acting user for an audit record.
// Debug routes run without auth, so the user falls back to X-User-ID. A request
// id is minted and stored when no middleware provided one.
func auditIdentity(c *gin.Context) (string, *int64) {
	requestID := c.GetString(middleware.RequestIDKey)
	if requestID == "" {
		requestID = observability.RequestIDFromContext(c.Request.Context())
	}
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)

	if id := currentUser(c); id > 0 {
		uid := int64(id)
		return requestID, &uid
	}
	if parsed, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64); err == nil && parsed > 0 {
		return requestID, &parsed
	}
	return requestID, nil
}
