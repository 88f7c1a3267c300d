package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

const notificationColumns = `id, recipient_id, message_id, created_at, is_read`

// NotificationRepository persists new-message notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationIDs []int, userID int) (int64, error)
	DeleteForUser(ctx context.Context, userID int) (int64, error)
}

// NotificationRepo is a sqlx-backed repository.
type NotificationRepo struct {
	db Querier
}

// NewNotificationRepo constructs NotificationRepo.
func NewNotificationRepo(db Querier) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// CreateNotification stores a notification.
func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	var id int
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`INSERT INTO notifications (recipient_id, message_id, created_at, is_read)
        VALUES (?, ?, ?, ?) RETURNING id`),
		n.RecipientID, n.MessageID, n.CreatedAt, n.IsRead)
	if err != nil {
		return models.Notification{}, err
	}
	var stored models.Notification
	err = r.db.GetContext(ctx, &stored, r.db.Rebind(`SELECT `+notificationColumns+` FROM notifications WHERE id=?`), id)
	return stored, err
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id=?`
	if unreadOnly {
		query += ` AND is_read=FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	list := []models.Notification{}
	err := r.db.SelectContext(ctx, &list, r.db.Rebind(query), userID, limit, offset)
	return list, err
}

// MarkRead flags the user's unread notifications and returns how many changed.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationIDs []int, userID int) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE notifications SET is_read=TRUE WHERE id IN (?) AND recipient_id=? AND is_read=FALSE`, notificationIDs, userID)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteForUser removes notifications addressed to the user or about messages a purge of the user removes.
func (r *NotificationRepo) DeleteForUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(purgeScope+`DELETE FROM notifications
        WHERE recipient_id=? OR message_id IN (SELECT id FROM doomed)`), userID, userID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
