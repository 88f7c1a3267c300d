package models

import "time"

// Message is a directed message between two users, optionally replying to a parent.
type Message struct {
	ID              int       `db:"id" json:"id"`
	SenderID        int       `db:"sender_id" json:"sender_id"`
	ReceiverID      int       `db:"receiver_id" json:"receiver_id"`
	ParentID        *int      `db:"parent_id" json:"parent_id,omitempty"`
	Content         string    `db:"content" json:"content"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	Edited          bool      `db:"edited" json:"edited"`
	IsRead          bool      `db:"is_read" json:"is_read"`
	ThreadTouchedAt time.Time `db:"thread_touched_at" json:"thread_touched_at"`
}

// IsRoot reports whether the message starts a thread.
func (m Message) IsRoot() bool {
	return m.ParentID == nil
}

// Involves reports whether userID is the sender or the receiver.
func (m Message) Involves(userID int) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// UnreadMessage is the restricted projection returned by unread listings.
type UnreadMessage struct {
	ID         int       `db:"id" json:"id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	ParentID   *int      `db:"parent_id" json:"parent_id,omitempty"`
}

// MessageHistory is an immutable snapshot of a message's content before an edit.
type MessageHistory struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	Content   string    `db:"content" json:"content"`
	EditedAt  time.Time `db:"edited_at" json:"edited_at"`
	EditedBy  *int      `db:"edited_by" json:"edited_by,omitempty"`
}
