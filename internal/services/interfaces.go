package services

import (
	"context"

	"messaging-service/internal/models"
)

// Messages is the message store API used by the transport layer.
type Messages interface {
	Create(ctx context.Context, senderID, receiverID int, content string, parentID *int) (models.Message, error)
	Update(ctx context.Context, messageID, editorID int, newContent string) (models.Message, error)
	MarkRead(ctx context.Context, messageIDs []int, readerID int) (int64, error)
	Get(ctx context.Context, messageID, userID int) (models.Message, error)
	History(ctx context.Context, messageID, userID int) ([]models.MessageHistory, error)
}

// Threads assembles reply trees.
type Threads interface {
	GetThreads(ctx context.Context, userID int, otherUserID *int, maxDepth int) ([]*models.ThreadNode, error)
	GetConversation(ctx context.Context, userID, otherUserID int, messageID *int) ([]*models.ThreadNode, error)
}

// Inbox exposes unread views.
type Inbox interface {
	UnreadFor(ctx context.Context, userID int, page Page) ([]models.UnreadMessage, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkAsRead(ctx context.Context, messageIDs []int, userID int) (int64, error)
}

// Notifications lists and acknowledges notifications.
type Notifications interface {
	List(ctx context.Context, userID int, unreadOnly bool, page Page) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationIDs []int, userID int) (int64, error)
}

// Accounts removes an identity and everything referencing it.
type Accounts interface {
	Purge(ctx context.Context, userID int) (models.PurgeResult, error)
}

var (
	_ Messages      = (*MessageService)(nil)
	_ Threads       = (*ThreadService)(nil)
	_ Inbox         = (*InboxService)(nil)
	_ Notifications = (*NotificationService)(nil)
	_ Accounts      = (*PurgeService)(nil)
)
