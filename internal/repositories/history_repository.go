package repositories

import (
	"context"

	"messaging-service/internal/models"
)

const historyColumns = `id, message_id, content, edited_at, edited_by`

// HistoryRepository stores pre-edit snapshots of messages.
type HistoryRepository interface {
	CreateSnapshot(ctx context.Context, snapshot models.MessageHistory) (models.MessageHistory, error)
	ListForMessage(ctx context.Context, messageID int) ([]models.MessageHistory, error)
	DeleteForUser(ctx context.Context, userID int) (int64, error)
}

// HistoryRepo is a sqlx-backed repository.
type HistoryRepo struct {
	db Querier
}

// NewHistoryRepo constructs HistoryRepo.
func NewHistoryRepo(db Querier) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// CreateSnapshot stores one snapshot.
func (r *HistoryRepo) CreateSnapshot(ctx context.Context, snapshot models.MessageHistory) (models.MessageHistory, error) {
	var id int
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`INSERT INTO message_history (message_id, content, edited_at, edited_by)
        VALUES (?, ?, ?, ?) RETURNING id`),
		snapshot.MessageID, snapshot.Content, snapshot.EditedAt, snapshot.EditedBy)
	if err != nil {
		return models.MessageHistory{}, err
	}
	var stored models.MessageHistory
	err = r.db.GetContext(ctx, &stored, r.db.Rebind(`SELECT `+historyColumns+` FROM message_history WHERE id=?`), id)
	return stored, err
}

// ListForMessage returns the snapshots of a message, newest first.
func (r *HistoryRepo) ListForMessage(ctx context.Context, messageID int) ([]models.MessageHistory, error) {
	history := []models.MessageHistory{}
	err := r.db.SelectContext(ctx, &history, r.db.Rebind(`SELECT `+historyColumns+`
        FROM message_history WHERE message_id=? ORDER BY edited_at DESC, id DESC`), messageID)
	return history, err
}

// DeleteForUser removes snapshots edited by the user or belonging to messages a purge of the user removes.
func (r *HistoryRepo) DeleteForUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(purgeScope+`DELETE FROM message_history
        WHERE edited_by=? OR message_id IN (SELECT id FROM doomed)`), userID, userID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
