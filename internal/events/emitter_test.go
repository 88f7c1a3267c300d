package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"messaging-service/internal/events"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/services"
)

var _ services.EventPublisher = (*events.Emitter)(nil)

func TestEmitterPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := events.NewEmitter(nil, pub)
	ctx := observability.WithRequestID(context.Background(), "req-1")

	pub.On("Publish", ctx, events.MessageCreated, mock.MatchedBy(func(e observability.EventEnvelope) bool {
		payload, ok := e.Payload.(events.MessageCreatedPayload)
		return ok &&
			e.EventName == events.MessageCreated &&
			e.Headers["x-request-id"] == "req-1" &&
			payload.Message.ID == 5 &&
			payload.Notification.RecipientID == 2
	})).Return(nil).Once()

	emitter.MessageCreated(ctx, models.Message{ID: 5, SenderID: 1, ReceiverID: 2}, models.Notification{ID: 9, RecipientID: 2, MessageID: 5})

	pub.AssertExpectations(t)
}

func TestEmitterSwallowsPublishErrors(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := events.NewEmitter(nil, pub)

	pub.On("Publish", mock.Anything, events.AccountPurged, mock.AnythingOfType("observability.EventEnvelope")).Return(assert.AnError).Once()

	assert.NotPanics(t, func() {
		emitter.AccountPurged(context.Background(), 3, models.PurgeResult{Messages: 2})
	})
	pub.AssertExpectations(t)
}

func TestEmitterRoutingKeys(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := events.NewEmitter(nil, pub)
	ctx := context.Background()

	pub.On("Publish", ctx, events.MessageEdited, mock.Anything).Return(nil).Once()
	pub.On("Publish", ctx, events.MessagesRead, mock.Anything).Return(nil).Once()

	emitter.MessageEdited(ctx, models.Message{ID: 1}, "old")
	emitter.MessagesRead(ctx, 2, 4)

	pub.AssertExpectations(t)
}
