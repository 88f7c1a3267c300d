package services

import (
	"context"
	"fmt"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// InboxService exposes unread views over messages.
type InboxService struct {
	store    repositories.Store
	messages *MessageService
	opts     options
}

// NewInboxService constructs an InboxService. Mark-as-read goes through messages.
func NewInboxService(store repositories.Store, messages *MessageService, opts ...Option) *InboxService {
	return &InboxService{store: store, messages: messages, opts: buildOptions(opts)}
}

// UnreadFor returns the unread projection for the user, newest first.
func (s *InboxService) UnreadFor(ctx context.Context, userID int, page Page) ([]models.UnreadMessage, error) {
	page = page.normalize()
	msgs, err := s.store.Repositories().Messages.ListUnread(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	return msgs, nil
}

// UnreadCount returns the number of unread messages, served from cache when possible.
func (s *InboxService) UnreadCount(ctx context.Context, userID int) (int, error) {
	count, ok, err := s.opts.cache.Get(ctx, userID)
	switch {
	case err != nil:
		observability.IncUnreadCache("error")
		s.opts.log.Warn("unread cache read failed", "user_id", userID, "error", err)
	case ok:
		observability.IncUnreadCache("hit")
		return count, nil
	default:
		observability.IncUnreadCache("miss")
	}

	count, err = s.store.Repositories().Messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if err := s.opts.cache.Set(ctx, userID, count); err != nil {
		s.opts.log.Warn("unread cache write failed", "user_id", userID, "error", err)
	}
	return count, nil
}

// MarkAsRead delegates to the message store.
func (s *InboxService) MarkAsRead(ctx context.Context, messageIDs []int, userID int) (int64, error) {
	return s.messages.MarkRead(ctx, messageIDs, userID)
}
