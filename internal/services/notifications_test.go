package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/services"
)

func TestNotificationListAndMarkRead(t *testing.T) {
	f := newFixture(t)
	svc := services.NewNotificationService(f.store)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	m1 := f.send(t, a, b, "one", nil)
	m2 := f.send(t, a, b, "two", nil)
	ctx := context.Background()

	list, err := svc.List(ctx, b.ID, false, services.Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, m2.ID, list[0].MessageID)
	assert.Equal(t, m1.ID, list[1].MessageID)

	count, err := svc.MarkRead(ctx, []int{list[1].ID}, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	count, err = svc.MarkRead(ctx, []int{list[1].ID}, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	unread, err := svc.List(ctx, b.ID, true, services.Page{})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, m2.ID, unread[0].MessageID)

	none, err := svc.List(ctx, a.ID, false, services.Page{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
