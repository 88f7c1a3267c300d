package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, sender_id, receiver_id, parent_id, content, created_at, edited, is_read, thread_touched_at`

// purgeScope names as doomed every message a user sent or received plus every
// reply below those, whoever wrote it. Its two placeholders take the user id.
const purgeScope = `WITH RECURSIVE doomed(id) AS (
        SELECT id FROM messages WHERE sender_id=? OR receiver_id=?
        UNION
        SELECT m.id FROM messages m JOIN doomed d ON m.parent_id = d.id
    ) `

// MessageRepository defines persistence for direct messages and their threads.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	LockMessage(ctx context.Context, messageID int) (models.Message, error)
	UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error)
	TouchThread(ctx context.Context, messageID int, at time.Time) error
	MarkRead(ctx context.Context, messageIDs []int, readerID int) (int64, error)
	ListRoots(ctx context.Context, userID int, otherUserID *int) ([]models.Message, error)
	ListReplies(ctx context.Context, parentIDs []int) ([]models.Message, error)
	ListUnread(ctx context.Context, userID int, limit, offset int) ([]models.UnreadMessage, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	ListUnreadRecipients(ctx context.Context, userID int) ([]int, error)
	DeleteForUser(ctx context.Context, userID int) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db Querier
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db Querier) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage inserts msg and returns the stored row.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var id int
	query := r.db.Rebind(`INSERT INTO messages (sender_id, receiver_id, parent_id, content, created_at, edited, is_read, thread_touched_at)
        VALUES (?, ?, ?, ?, ?, FALSE, FALSE, ?) RETURNING id`)
	if err := r.db.GetContext(ctx, &id, query, msg.SenderID, msg.ReceiverID, msg.ParentID, msg.Content, msg.CreatedAt, msg.ThreadTouchedAt); err != nil {
		return models.Message{}, err
	}
	return r.GetMessage(ctx, id)
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, r.db.Rebind(`SELECT `+messageColumns+` FROM messages WHERE id=?`), messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// LockMessage reads a message and, on postgres, holds its row lock until the transaction ends.
func (r *MessageRepo) LockMessage(ctx context.Context, messageID int) (models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id=?`
	if r.db.DriverName() == "postgres" {
		query += ` FOR UPDATE`
	}
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, r.db.Rebind(query), messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateContent replaces the content and flags the message as edited.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE messages SET content=?, edited=TRUE WHERE id=?`), content, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Message{}, err
	} else if n == 0 {
		return models.Message{}, ErrMessageNotFound
	}
	return r.GetMessage(ctx, messageID)
}

// TouchThread moves the thread freshness timestamp of one message forward.
func (r *MessageRepo) TouchThread(ctx context.Context, messageID int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE messages SET thread_touched_at=? WHERE id=? AND thread_touched_at < ?`), at, messageID, at)
	return err
}

// MarkRead flags unread messages addressed to readerID and returns how many changed.
func (r *MessageRepo) MarkRead(ctx context.Context, messageIDs []int, readerID int) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE messages SET is_read=TRUE WHERE id IN (?) AND receiver_id=? AND is_read=FALSE`, messageIDs, readerID)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListRoots returns thread-starting messages involving the user, most recently active first.
func (r *MessageRepo) ListRoots(ctx context.Context, userID int, otherUserID *int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE parent_id IS NULL AND (sender_id=? OR receiver_id=?)`
	args := []interface{}{userID, userID}
	if otherUserID != nil {
		query += ` AND (sender_id=? OR receiver_id=?)`
		args = append(args, *otherUserID, *otherUserID)
	}
	query += ` ORDER BY thread_touched_at DESC, id DESC`

	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), args...)
	return msgs, err
}

// ListReplies returns the direct replies of the given parents, oldest first.
func (r *MessageRepo) ListReplies(ctx context.Context, parentIDs []int) ([]models.Message, error) {
	msgs := []models.Message{}
	if len(parentIDs) == 0 {
		return msgs, nil
	}
	query, args, err := sqlx.In(`SELECT `+messageColumns+` FROM messages WHERE parent_id IN (?) ORDER BY created_at ASC, id ASC`, parentIDs)
	if err != nil {
		return nil, err
	}
	err = r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), args...)
	return msgs, err
}

// ListUnread returns the unread projection for a receiver, newest first.
func (r *MessageRepo) ListUnread(ctx context.Context, userID int, limit, offset int) ([]models.UnreadMessage, error) {
	query := `SELECT id, content, created_at, sender_id, receiver_id, parent_id
        FROM messages
        WHERE receiver_id=? AND is_read=FALSE
        ORDER BY created_at DESC, id DESC
        LIMIT ? OFFSET ?`
	msgs := []models.UnreadMessage{}
	err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), userID, limit, offset)
	return msgs, err
}

// CountUnread counts unread messages addressed to the user.
func (r *MessageRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM messages WHERE receiver_id=? AND is_read=FALSE`), userID)
	return count, err
}

// ListUnreadRecipients returns the users holding unread messages that a purge of userID removes.
func (r *MessageRepo) ListUnreadRecipients(ctx context.Context, userID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, r.db.Rebind(purgeScope+`SELECT DISTINCT receiver_id FROM messages
        WHERE id IN (SELECT id FROM doomed) AND is_read=FALSE AND receiver_id<>?
        ORDER BY receiver_id`), userID, userID, userID)
	return ids, err
}

// DeleteForUser removes every message the user sent or received and every reply below them.
func (r *MessageRepo) DeleteForUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(purgeScope+`DELETE FROM messages WHERE id IN (SELECT id FROM doomed)`), userID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
