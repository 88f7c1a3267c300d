package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// PurgeService deletes an identity and every row that references it.
type PurgeService struct {
	store repositories.Store
	opts  options
}

// NewPurgeService constructs a PurgeService.
func NewPurgeService(store repositories.Store, opts ...Option) *PurgeService {
	return &PurgeService{store: store, opts: buildOptions(opts)}
}

// Purge removes history snapshots, notifications and messages involving the
// user, then the identity itself, in one transaction. Children go first so the
// sweep holds whether or not the schema cascades.
func (s *PurgeService) Purge(ctx context.Context, userID int) (models.PurgeResult, error) {
	ctx, span := tracer.Start(ctx, "accounts.purge")
	defer span.End()

	var (
		result     models.PurgeResult
		recipients []int
	)
	err := s.store.WithTx(ctx, func(repos repositories.Repositories) error {
		var err error
		recipients, err = repos.Messages.ListUnreadRecipients(ctx, userID)
		if err != nil {
			return fmt.Errorf("list unread recipients: %w", err)
		}
		if result.History, err = repos.History.DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if result.Notifications, err = repos.Notifications.DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		if result.Messages, err = repos.Messages.DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if result.Users, err = repos.Users.DeleteUser(ctx, userID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return models.PurgeResult{}, err
	}
	span.SetAttributes(
		attribute.Int64("purge.messages", result.Messages),
		attribute.Int64("purge.notifications", result.Notifications),
		attribute.Int64("purge.history", result.History),
	)

	observability.IncAccountPurge()
	s.opts.invalidate(ctx, append(recipients, userID)...)
	s.opts.events.AccountPurged(ctx, userID, result)
	uid := int64(userID)
	s.opts.auditor.Emit(ctx, "INFO", fmt.Sprintf("account %d purged: %d messages, %d notifications, %d snapshots",
		userID, result.Messages, result.Notifications, result.History), observability.RequestIDFromContext(ctx), &uid)
	return result, nil
}
