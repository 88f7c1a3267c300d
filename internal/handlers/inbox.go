package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/services"
)

// InboxHandler serves unread listings and read receipts.
type InboxHandler struct {
	inbox services.Inbox
}

func NewInboxHandler(inbox services.Inbox) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

type markReadRequest struct {
	MessageIDs []int `json:"message_ids" binding:"required"`
}

func (h *InboxHandler) ListUnread(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	msgs, err := h.inbox.UnreadFor(c.Request.Context(), currentUser(c), page)
	if err != nil {
		respondError(c, err, "failed to load unread messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *InboxHandler) UnreadCount(c *gin.Context) {
	count, err := h.inbox.UnreadCount(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to count unread messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *InboxHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.inbox.MarkAsRead(c.Request.Context(), req.MessageIDs, currentUser(c))
	if err != nil {
		respondError(c, err, "failed to mark messages read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
