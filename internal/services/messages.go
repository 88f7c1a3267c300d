package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// MessageService creates, edits and reads direct messages.
type MessageService struct {
	store      repositories.Store
	tracker    *HistoryTracker
	dispatcher *NotificationDispatcher
	opts       options
}

// NewMessageService constructs a MessageService.
func NewMessageService(store repositories.Store, opts ...Option) *MessageService {
	o := buildOptions(opts)
	return &MessageService{
		store:      store,
		tracker:    NewHistoryTracker(o.clock),
		dispatcher: NewNotificationDispatcher(o.clock),
		opts:       o,
	}
}

// Create stores a message and its notification in one transaction. A reply
// refreshes its immediate parent's thread timestamp.
func (s *MessageService) Create(ctx context.Context, senderID, receiverID int, content string, parentID *int) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.create")
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return models.Message{}, invalid("content", "must not be blank")
	}
	if senderID == receiverID {
		return models.Message{}, invalid("receiver_id", "cannot send a message to yourself")
	}

	now := s.opts.clock()
	var (
		created      models.Message
		notification models.Notification
	)
	err := s.store.WithTx(ctx, func(repos repositories.Repositories) error {
		if err := requireUsers(ctx, repos, senderID, receiverID); err != nil {
			return err
		}

		if parentID != nil {
			_, err := repos.Messages.GetMessage(ctx, *parentID)
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return invalid("parent_id", "parent message does not exist")
			}
			if err != nil {
				return fmt.Errorf("load parent: %w", err)
			}
		}

		var err error
		created, err = repos.Messages.CreateMessage(ctx, models.Message{
			SenderID:        senderID,
			ReceiverID:      receiverID,
			ParentID:        parentID,
			Content:         content,
			CreatedAt:       now,
			ThreadTouchedAt: now,
		})
		if err != nil {
			return fmt.Errorf("store message: %w", err)
		}

		if parentID != nil {
			if err := repos.Messages.TouchThread(ctx, *parentID, now); err != nil {
				return fmt.Errorf("touch parent thread: %w", err)
			}
		}

		notification, err = s.dispatcher.Dispatch(ctx, repos, created)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return models.Message{}, err
	}
	span.SetAttributes(attribute.Int("message.id", created.ID), attribute.Bool("message.reply", parentID != nil))

	observability.IncMessageCreated(parentID != nil)
	s.opts.invalidate(ctx, receiverID)
	s.opts.events.MessageCreated(ctx, created, notification)
	s.opts.notifier.NotifyUser(receiverID, models.NotificationEvent{
		Type:         "notification",
		Notification: &notification,
		Message:      &created,
	})
	return created, nil
}

// Update replaces a message's content. Only the sender may edit. Resubmitting
// the stored content changes nothing.
func (s *MessageService) Update(ctx context.Context, messageID, editorID int, newContent string) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.update")
	defer span.End()
	span.SetAttributes(attribute.Int("message.id", messageID))

	if strings.TrimSpace(newContent) == "" {
		return models.Message{}, invalid("content", "must not be blank")
	}

	var (
		updated  models.Message
		previous string
		changed  bool
	)
	err := s.store.WithTx(ctx, func(repos repositories.Repositories) error {
		current, err := repos.Messages.LockMessage(ctx, messageID)
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load message: %w", err)
		}
		if !current.Involves(editorID) {
			return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
		}
		if current.SenderID != editorID {
			return fmt.Errorf("only the sender may edit message %d: %w", messageID, ErrForbidden)
		}

		changed, err = s.tracker.Track(ctx, repos, current, newContent)
		if err != nil {
			return err
		}
		if !changed {
			updated = current
			return nil
		}

		previous = current.Content
		updated, err = repos.Messages.UpdateContent(ctx, messageID, newContent)
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("message %d removed during edit: %w", messageID, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("update message: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return models.Message{}, err
	}

	if changed {
		observability.IncMessageEdited()
		s.opts.events.MessageEdited(ctx, updated, previous)
		editor := int64(editorID)
		s.opts.auditor.Emit(ctx, "INFO", fmt.Sprintf("message %d edited", messageID), observability.RequestIDFromContext(ctx), &editor)
	}
	return updated, nil
}

// MarkRead flags the given messages as read for their receiver. Messages
// addressed to someone else, or already read, are skipped.
func (s *MessageService) MarkRead(ctx context.Context, messageIDs []int, readerID int) (int64, error) {
	ids := uniqueIDs(messageIDs)
	if len(ids) > MaxBatchIDs {
		return 0, invalid("message_ids", fmt.Sprintf("at most %d ids per call", MaxBatchIDs))
	}

	count, err := s.store.Repositories().Messages.MarkRead(ctx, ids, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	if count > 0 {
		observability.AddMessagesRead(count)
		s.opts.invalidate(ctx, readerID)
		s.opts.events.MessagesRead(ctx, readerID, count)
	}
	return count, nil
}

// Get returns a message the user participates in.
func (s *MessageService) Get(ctx context.Context, messageID, userID int) (models.Message, error) {
	msg, err := s.store.Repositories().Messages.GetMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, fmt.Errorf("message %d: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("load message: %w", err)
	}
	if !msg.Involves(userID) {
		return models.Message{}, fmt.Errorf("message %d: %w", messageID, ErrNotFound)
	}
	return msg, nil
}

// History lists the snapshots of a message the user participates in, newest first.
func (s *MessageService) History(ctx context.Context, messageID, userID int) ([]models.MessageHistory, error) {
	if _, err := s.Get(ctx, messageID, userID); err != nil {
		return nil, err
	}
	history, err := s.store.Repositories().History.ListForMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return history, nil
}

func requireUsers(ctx context.Context, repos repositories.Repositories, senderID, receiverID int) error {
	users, err := repos.Users.GetUsers(ctx, []int{senderID, receiverID})
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	known := make(map[int]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	if !known[senderID] {
		return fmt.Errorf("sender %d: %w", senderID, ErrNotFound)
	}
	if !known[receiverID] {
		return fmt.Errorf("receiver %d: %w", receiverID, ErrNotFound)
	}
	return nil
}
