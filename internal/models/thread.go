package models

import "time"

// ThreadNode is one message in an assembled reply tree.
type ThreadNode struct {
	ID              int           `json:"id"`
	Sender          UserSummary   `json:"sender"`
	Receiver        UserSummary   `json:"receiver"`
	Content         string        `json:"content"`
	CreatedAt       time.Time     `json:"timestamp"`
	ThreadTouchedAt time.Time     `json:"thread_updated"`
	Edited          bool          `json:"edited"`
	IsRead          bool          `json:"is_read"`
	Replies         []*ThreadNode `json:"replies"`
}

// Depth returns the number of reply levels below the node.
func (n *ThreadNode) Depth() int {
	deepest := 0
	for _, r := range n.Replies {
		if d := r.Depth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// PurgeResult counts the rows removed by an account purge.
type PurgeResult struct {
	History       int64 `json:"history"`
	Notifications int64 `json:"notifications"`
	Messages      int64 `json:"messages"`
	Users         int64 `json:"users"`
}
