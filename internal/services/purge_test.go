package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/services"
)

func TestPurgeRemovesEveryReference(t *testing.T) {
	cache := new(mocks.UnreadCacheMock)
	events := new(mocks.EventPublisherMock)
	f := newFixture(t)
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")

	m1 := f.send(t, a, b, "Hi", nil)
	f.send(t, b, a, "Hello", &m1)
	_, err := f.messages.Update(context.Background(), m1.ID, a.ID, "Hi!")
	require.NoError(t, err)
	unrelated := f.send(t, b, c, "just us", nil)
	_, err = f.messages.Update(context.Background(), unrelated.ID, b.ID, "just us two")
	require.NoError(t, err)

	expected := models.PurgeResult{History: 1, Notifications: 2, Messages: 2, Users: 1}
	cache.On("Invalidate", mock.Anything, []int{b.ID, a.ID}).Return(nil).Once()
	events.On("AccountPurged", mock.Anything, a.ID, expected).Once()

	purge := services.NewPurgeService(f.store, services.WithUnreadCache(cache), services.WithEvents(events))
	result, err := purge.Purge(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, expected, result)

	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM messages WHERE sender_id=? OR receiver_id=?`, a.ID, a.ID))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM notifications WHERE recipient_id=?`, a.ID))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM message_history WHERE edited_by=?`, a.ID))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM users WHERE id=?`, a.ID))

	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM messages`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM notifications WHERE message_id=?`, unrelated.ID))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM message_history WHERE message_id=?`, unrelated.ID))
	assert.Equal(t, 2, f.count(t, `SELECT COUNT(*) FROM users`))

	cache.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestPurgeRollsBackWhenUserDeleteFails(t *testing.T) {
	events := new(mocks.EventPublisherMock)
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	msg := f.send(t, a, b, "Hi", nil)
	_, err := f.messages.Update(context.Background(), msg.ID, a.ID, "Hi!")
	require.NoError(t, err)

	purge := services.NewPurgeService(withFailingUserDelete(f.store), services.WithEvents(events))
	_, err = purge.Purge(context.Background(), a.ID)
	require.Error(t, err)

	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM messages`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM notifications`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM message_history`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM users WHERE id=?`, a.ID))
	events.AssertNotCalled(t, "AccountPurged", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurgeRemovesThirdPartyRepliesBelowUserMessages(t *testing.T) {
	cache := new(mocks.UnreadCacheMock)
	f := newFixture(t)
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	root := f.send(t, a, b, "Hi", nil)
	reply := f.send(t, c, b, "jumping in", &root)
	nested := f.send(t, b, c, "welcome", &reply)
	_, err := f.messages.Update(context.Background(), nested.ID, b.ID, "welcome, carol")
	require.NoError(t, err)
	kept := f.send(t, b, c, "separate", nil)

	cache.On("Invalidate", mock.Anything, []int{b.ID, c.ID, a.ID}).Return(nil).Once()

	result, err := services.NewPurgeService(f.store, services.WithUnreadCache(cache)).Purge(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurgeResult{History: 1, Notifications: 3, Messages: 3, Users: 1}, result)

	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM messages m WHERE m.parent_id IS NOT NULL
        AND NOT EXISTS (SELECT 1 FROM messages p WHERE p.id = m.parent_id)`))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM notifications n WHERE NOT EXISTS (SELECT 1 FROM messages m WHERE m.id = n.message_id)`))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM message_history h WHERE NOT EXISTS (SELECT 1 FROM messages m WHERE m.id = h.message_id)`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM messages`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM messages WHERE id=?`, kept.ID))
	cache.AssertExpectations(t)
}

func TestPurgeUnknownUserIsEmpty(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	f.send(t, a, b, "Hi", nil)

	result, err := services.NewPurgeService(f.store).Purge(context.Background(), 9999)
	require.NoError(t, err)
	assert.Equal(t, models.PurgeResult{}, result)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM messages`))
}

func TestPurgeThenThreadsAreEmpty(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	root := f.send(t, a, b, "Hi", nil)
	f.send(t, b, a, "Hello", &root)

	_, err := services.NewPurgeService(f.store).Purge(context.Background(), a.ID)
	require.NoError(t, err)

	forest, err := services.NewThreadService(f.store).GetThreads(context.Background(), b.ID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, forest)
}
