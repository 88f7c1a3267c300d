package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/models"
	"messaging-service/internal/services"
)

type MessagesMock struct {
	mock.Mock
}

func (m *MessagesMock) Create(ctx context.Context, senderID, receiverID int, content string, parentID *int) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, content, parentID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessagesMock) Update(ctx context.Context, messageID, editorID int, newContent string) (models.Message, error) {
	args := m.Called(ctx, messageID, editorID, newContent)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessagesMock) MarkRead(ctx context.Context, messageIDs []int, readerID int) (int64, error) {
	args := m.Called(ctx, messageIDs, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessagesMock) Get(ctx context.Context, messageID, userID int) (models.Message, error) {
	args := m.Called(ctx, messageID, userID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessagesMock) History(ctx context.Context, messageID, userID int) ([]models.MessageHistory, error) {
	args := m.Called(ctx, messageID, userID)
	var list []models.MessageHistory
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageHistory)
	}
	return list, args.Error(1)
}

type ThreadsMock struct {
	mock.Mock
}

func (m *ThreadsMock) GetThreads(ctx context.Context, userID int, otherUserID *int, maxDepth int) ([]*models.ThreadNode, error) {
	args := m.Called(ctx, userID, otherUserID, maxDepth)
	var list []*models.ThreadNode
	if val := args.Get(0); val != nil {
		list = val.([]*models.ThreadNode)
	}
	return list, args.Error(1)
}

func (m *ThreadsMock) GetConversation(ctx context.Context, userID, otherUserID int, messageID *int) ([]*models.ThreadNode, error) {
	args := m.Called(ctx, userID, otherUserID, messageID)
	var list []*models.ThreadNode
	if val := args.Get(0); val != nil {
		list = val.([]*models.ThreadNode)
	}
	return list, args.Error(1)
}

type InboxMock struct {
	mock.Mock
}

func (m *InboxMock) UnreadFor(ctx context.Context, userID int, page services.Page) ([]models.UnreadMessage, error) {
	args := m.Called(ctx, userID, page)
	var list []models.UnreadMessage
	if val := args.Get(0); val != nil {
		list = val.([]models.UnreadMessage)
	}
	return list, args.Error(1)
}

func (m *InboxMock) UnreadCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *InboxMock) MarkAsRead(ctx context.Context, messageIDs []int, userID int) (int64, error) {
	args := m.Called(ctx, messageIDs, userID)
	return args.Get(0).(int64), args.Error(1)
}

type NotificationsMock struct {
	mock.Mock
}

func (m *NotificationsMock) List(ctx context.Context, userID int, unreadOnly bool, page services.Page) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, page)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationsMock) MarkRead(ctx context.Context, notificationIDs []int, userID int) (int64, error) {
	args := m.Called(ctx, notificationIDs, userID)
	return args.Get(0).(int64), args.Error(1)
}

type AccountsMock struct {
	mock.Mock
}

func (m *AccountsMock) Purge(ctx context.Context, userID int) (models.PurgeResult, error) {
	args := m.Called(ctx, userID)
	var res models.PurgeResult
	if val := args.Get(0); val != nil {
		res = val.(models.PurgeResult)
	}
	return res, args.Error(1)
}

type UnreadCacheMock struct {
	mock.Mock
}

func (m *UnreadCacheMock) Get(ctx context.Context, userID int) (int, bool, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *UnreadCacheMock) Set(ctx context.Context, userID int, count int) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}

func (m *UnreadCacheMock) Invalidate(ctx context.Context, userIDs ...int) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}

type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) MessageCreated(ctx context.Context, msg models.Message, notification models.Notification) {
	m.Called(ctx, msg, notification)
}

func (m *EventPublisherMock) MessageEdited(ctx context.Context, msg models.Message, previousContent string) {
	m.Called(ctx, msg, previousContent)
}

func (m *EventPublisherMock) MessagesRead(ctx context.Context, readerID int, count int64) {
	m.Called(ctx, readerID, count)
}

func (m *EventPublisherMock) AccountPurged(ctx context.Context, userID int, result models.PurgeResult) {
	m.Called(ctx, userID, result)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyUser(userID int, event models.NotificationEvent) {
	m.Called(userID, event)
}

type AuditorMock struct {
	mock.Mock
}

func (m *AuditorMock) Emit(ctx context.Context, level, text, requestID string, userID *int64) {
	m.Called(ctx, level, text, requestID, userID)
}

var (
	_ services.Messages       = (*MessagesMock)(nil)
	_ services.Threads        = (*ThreadsMock)(nil)
	_ services.Inbox          = (*InboxMock)(nil)
	_ services.Notifications  = (*NotificationsMock)(nil)
	_ services.Accounts       = (*AccountsMock)(nil)
	_ services.UnreadCache    = (*UnreadCacheMock)(nil)
	_ services.EventPublisher = (*EventPublisherMock)(nil)
	_ services.Notifier       = (*NotifierMock)(nil)
	_ services.Auditor        = (*AuditorMock)(nil)
)

// PublisherMock stands in for the broker in rabbitmq, events, telemetry and ws tests.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
