// Package events publishes committed domain changes to the message broker.
package events

import (
	"context"
	"time"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const (
	MessageCreated = "message.created"
	MessageEdited  = "message.edited"
	MessagesRead   = "messages.read"
	AccountPurged  = "account.purged"
)

// Publisher is the broker side of the emitter.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Emitter turns service callbacks into broker envelopes. Publish failures are
// logged and never reach the caller, whose transaction has already committed.
type Emitter struct {
	log       *logger.Logger
	publisher Publisher
	now       func() time.Time
}

func NewEmitter(log *logger.Logger, publisher Publisher) *Emitter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Emitter{log: log, publisher: publisher, now: time.Now}
}

type MessageCreatedPayload struct {
	Message      models.Message      `json:"message"`
	Notification models.Notification `json:"notification"`
}

type MessageEditedPayload struct {
	Message         models.Message `json:"message"`
	PreviousContent string         `json:"previous_content"`
}

type MessagesReadPayload struct {
	ReaderID int   `json:"reader_id"`
	Count    int64 `json:"count"`
}

type AccountPurgedPayload struct {
	UserID int                `json:"user_id"`
	Result models.PurgeResult `json:"result"`
}

func (e *Emitter) MessageCreated(ctx context.Context, msg models.Message, notification models.Notification) {
	e.publish(ctx, MessageCreated, MessageCreatedPayload{Message: msg, Notification: notification})
}

func (e *Emitter) MessageEdited(ctx context.Context, msg models.Message, previousContent string) {
	e.publish(ctx, MessageEdited, MessageEditedPayload{Message: msg, PreviousContent: previousContent})
}

func (e *Emitter) MessagesRead(ctx context.Context, readerID int, count int64) {
	e.publish(ctx, MessagesRead, MessagesReadPayload{ReaderID: readerID, Count: count})
}

func (e *Emitter) AccountPurged(ctx context.Context, userID int, result models.PurgeResult) {
	e.publish(ctx, AccountPurged, AccountPurgedPayload{UserID: userID, Result: result})
}

func (e *Emitter) publish(ctx context.Context, name string, payload interface{}) {
	if e == nil || e.publisher == nil {
		return
	}
	envelope := observability.EventEnvelope{
		EventType:  "domain_event",
		EventName:  name,
		OccurredAt: e.now().UTC().Format(time.RFC3339Nano),
		Headers:    observability.HeadersFromContext(ctx),
		Payload:    payload,
	}
	if err := e.publisher.Publish(ctx, name, envelope); err != nil {
		e.log.Warn("event publish failed", "event", name, "error", err)
	}
}
