package ws

import (
	"time"

	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	// sendBuffer is how many pushes may queue per socket before it is dropped.
	sendBuffer = 16
)

// ConnInfo describes one notification socket for logs and lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// age is how long the socket has been open, in milliseconds.
func (i ConnInfo) age() int64 {
	if i.ConnectedAt.IsZero() {
		return 0
	}
	return time.Since(i.ConnectedAt).Milliseconds()
}

func newConnID() string {
	return uuid.NewString()
}
