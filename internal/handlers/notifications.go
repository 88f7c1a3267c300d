package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/services"
)

// NotificationHandler lists and acknowledges notifications.
type NotificationHandler struct {
	notifications services.Notifications
}

func NewNotificationHandler(notifications services.Notifications) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type markNotificationsRequest struct {
	NotificationIDs []int `json:"notification_ids" binding:"required"`
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	unreadOnly := false
	if raw := c.Query("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unread"})
			return
		}
		unreadOnly = v
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}

	list, err := h.notifications.List(c.Request.Context(), currentUser(c), unreadOnly, page)
	if err != nil {
		respondError(c, err, "failed to load notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req markNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.notifications.MarkRead(c.Request.Context(), req.NotificationIDs, currentUser(c))
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
