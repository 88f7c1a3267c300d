package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/services"
)

// ThreadHandler serves nested reply trees.
type ThreadHandler struct {
	threads services.Threads
}

func NewThreadHandler(threads services.Threads) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

// ListThreads returns every thread of the caller, most recently active first.
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	maxDepth, ok := queryInt(c, "max_depth", services.DefaultMaxDepth)
	if !ok {
		return
	}
	var otherUserID *int
	if c.Query("other_user_id") != "" {
		id, ok := queryInt(c, "other_user_id", 0)
		if !ok {
			return
		}
		otherUserID = &id
	}

	threads, err := h.threads.GetThreads(c.Request.Context(), currentUser(c), otherUserID, maxDepth)
	if err != nil {
		respondError(c, err, "failed to load threads")
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// GetConversation returns the threads with one counterpart, or the single
// thread containing :message_id.
func (h *ThreadHandler) GetConversation(c *gin.Context) {
	otherUserID, ok := pathID(c, "other_user_id")
	if !ok {
		return
	}
	var messageID *int
	if c.Param("message_id") != "" {
		id, ok := pathID(c, "message_id")
		if !ok {
			return
		}
		messageID = &id
	}

	threads, err := h.threads.GetConversation(c.Request.Context(), currentUser(c), otherUserID, messageID)
	if err != nil {
		respondError(c, err, "failed to load conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}
