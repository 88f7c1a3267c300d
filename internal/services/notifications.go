package services

import (
	"context"
	"fmt"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// NotificationDispatcher creates the notification for a newly created message.
type NotificationDispatcher struct {
	clock Clock
}

// NewNotificationDispatcher constructs a NotificationDispatcher.
func NewNotificationDispatcher(clock Clock) *NotificationDispatcher {
	if clock == nil {
		clock = SystemClock
	}
	return &NotificationDispatcher{clock: clock}
}

// Dispatch must run in the transaction that created msg.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, repos repositories.Repositories, msg models.Message) (models.Notification, error) {
	n, err := repos.Notifications.CreateNotification(ctx, models.Notification{
		RecipientID: msg.ReceiverID,
		MessageID:   msg.ID,
		CreatedAt:   d.clock(),
		IsRead:      false,
	})
	if err != nil {
		return models.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// NotificationService lists and acknowledges notifications.
type NotificationService struct {
	store repositories.Store
	opts  options
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(store repositories.Store, opts ...Option) *NotificationService {
	return &NotificationService{store: store, opts: buildOptions(opts)}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int, unreadOnly bool, page Page) ([]models.Notification, error) {
	page = page.normalize()
	list, err := s.store.Repositories().Notifications.ListForUser(ctx, userID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags the user's notifications as read and returns how many changed.
func (s *NotificationService) MarkRead(ctx context.Context, notificationIDs []int, userID int) (int64, error) {
	ids := uniqueIDs(notificationIDs)
	if len(ids) > MaxBatchIDs {
		return 0, invalid("notification_ids", fmt.Sprintf("at most %d ids per call", MaxBatchIDs))
	}
	count, err := s.store.Repositories().Notifications.MarkRead(ctx, ids, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return count, nil
}
