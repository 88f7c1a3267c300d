package models

import "time"

// Notification tells a recipient about a newly created message.
type Notification struct {
	ID          int       `db:"id" json:"id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	MessageID   int       `db:"message_id" json:"message_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	IsRead      bool      `db:"is_read" json:"is_read"`
}

// NotificationEvent is pushed over websocket connections.
type NotificationEvent struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	Message      *Message      `json:"message,omitempty"`
}
