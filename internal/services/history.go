package services

import (
	"context"
	"fmt"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// HistoryTracker snapshots a message's content before an edit commits.
type HistoryTracker struct {
	clock Clock
}

// NewHistoryTracker constructs a HistoryTracker.
func NewHistoryTracker(clock Clock) *HistoryTracker {
	if clock == nil {
		clock = SystemClock
	}
	return &HistoryTracker{clock: clock}
}

// Track compares the locked pre-update row with newContent and, when they differ,
// stores the old content as a snapshot attributed to the sender. It reports
// whether the update changes the content. A zero current row (nothing stored
// yet) is a no-op.
func (t *HistoryTracker) Track(ctx context.Context, repos repositories.Repositories, current models.Message, newContent string) (bool, error) {
	if current.ID == 0 {
		return false, nil
	}
	if current.Content == newContent {
		return false, nil
	}

	editor := current.SenderID
	_, err := repos.History.CreateSnapshot(ctx, models.MessageHistory{
		MessageID: current.ID,
		Content:   current.Content,
		EditedAt:  t.clock(),
		EditedBy:  &editor,
	})
	if err != nil {
		return false, fmt.Errorf("store history snapshot: %w", err)
	}
	return true, nil
}
