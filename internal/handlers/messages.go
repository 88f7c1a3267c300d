package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/services"
)

// MessageHandler exposes the message store.
type MessageHandler struct {
	messages services.Messages
}

func NewMessageHandler(messages services.Messages) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type createMessageRequest struct {
	ReceiverID int    `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
	ParentID   *int   `json:"parent_id"`
}

type updateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostMessage creates a root message or a reply.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), currentUser(c), req.ReceiverID, req.Content, req.ParentID)
	if err != nil {
		respondError(c, err, "failed to store message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetMessage returns one message the caller participates in.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	msg, err := h.messages.Get(c.Request.Context(), messageID, currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load message")
		return
	}
	c.JSON(http.StatusOK, msg)
}

// EditMessage replaces the content of the caller's own message.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Update(c.Request.Context(), messageID, currentUser(c), req.Content)
	if err != nil {
		respondError(c, err, "failed to update message")
		return
	}
	c.JSON(http.StatusOK, msg)
}

// GetHistory lists prior versions of a message, newest first.
func (h *MessageHandler) GetHistory(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	history, err := h.messages.History(c.Request.Context(), messageID, currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
