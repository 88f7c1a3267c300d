package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
)

var tracer = otel.Tracer("messaging-service/services")

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is UTC wall time at microsecond precision, matching what postgres stores.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// UnreadCache caches per-user unread counts.
type UnreadCache interface {
	Get(ctx context.Context, userID int) (int, bool, error)
	Set(ctx context.Context, userID int, count int) error
	Invalidate(ctx context.Context, userIDs ...int) error
}

// EventPublisher receives domain events after their transaction commits.
type EventPublisher interface {
	MessageCreated(ctx context.Context, msg models.Message, notification models.Notification)
	MessageEdited(ctx context.Context, msg models.Message, previousContent string)
	MessagesRead(ctx context.Context, readerID int, count int64)
	AccountPurged(ctx context.Context, userID int, result models.PurgeResult)
}

// Notifier pushes live notifications to connected users.
type Notifier interface {
	NotifyUser(userID int, event models.NotificationEvent)
}

// Auditor records audit entries.
type Auditor interface {
	Emit(ctx context.Context, level, text, requestID string, userID *int64)
}

type options struct {
	clock    Clock
	cache    UnreadCache
	events   EventPublisher
	notifier Notifier
	auditor  Auditor
	log      *logger.Logger
}

// Option configures a service.
type Option func(*options)

func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithUnreadCache(cache UnreadCache) Option {
	return func(o *options) { o.cache = cache }
}

func WithEvents(events EventPublisher) Option {
	return func(o *options) { o.events = events }
}

func WithNotifier(notifier Notifier) Option {
	return func(o *options) { o.notifier = notifier }
}

func WithAuditor(auditor Auditor) Option {
	return func(o *options) { o.auditor = auditor }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    SystemClock,
		cache:    noopCache{},
		events:   noopEvents{},
		notifier: noopNotifier{},
		auditor:  noopAuditor{},
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// invalidate drops cached unread counts. Failures only cost a stale count until the TTL expires.
func (o options) invalidate(ctx context.Context, userIDs ...int) {
	if err := o.cache.Invalidate(ctx, userIDs...); err != nil {
		o.log.Warn("unread cache invalidation failed", "user_ids", userIDs, "error", err)
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, int) (int, bool, error) { return 0, false, nil }
func (noopCache) Set(context.Context, int, int) error { return nil }
func (noopCache) Invalidate(context.Context, ...int) error { return nil }

type noopEvents struct{}

func (noopEvents) MessageCreated(context.Context, models.Message, models.Notification) {}
func (noopEvents) MessageEdited(context.Context, models.Message, string) {}
func (noopEvents) MessagesRead(context.Context, int, int64) {}
func (noopEvents) AccountPurged(context.Context, int, models.PurgeResult) {}

type noopNotifier struct{}

func (noopNotifier) NotifyUser(int, models.NotificationEvent) {}

type noopAuditor struct{}

func (noopAuditor) Emit(context.Context, string, string, string, *int64) {}
