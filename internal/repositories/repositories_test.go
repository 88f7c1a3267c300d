package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/db/dbtest"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func insert(t *testing.T, repo repositories.MessageRepository, from, to int, parent *int, at time.Time) models.Message {
	t.Helper()
	msg, err := repo.CreateMessage(context.Background(), models.Message{
		SenderID: from, ReceiverID: to, ParentID: parent, Content: "c", CreatedAt: at, ThreadTouchedAt: at,
	})
	require.NoError(t, err)
	return msg
}

func TestMessageRepoRoundTrip(t *testing.T) {
	conn := dbtest.Open(t)
	a, b := dbtest.CreateUser(t, conn, "a"), dbtest.CreateUser(t, conn, "b")
	repo := repositories.NewMessageRepo(conn)
	ctx := context.Background()

	msg := insert(t, repo, a.ID, b.ID, nil, t0)
	assert.NotZero(t, msg.ID)
	assert.True(t, msg.CreatedAt.Equal(t0))
	assert.False(t, msg.Edited)

	got, err := repo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Nil(t, got.ParentID)

	locked, err := repo.LockMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, locked.ID)

	updated, err := repo.UpdateContent(ctx, msg.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)
	assert.True(t, updated.Edited)

	_, err = repo.GetMessage(ctx, 9999)
	assert.True(t, errors.Is(err, repositories.ErrMessageNotFound))
	_, err = repo.LockMessage(ctx, 9999)
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
	_, err = repo.UpdateContent(ctx, 9999, "x")
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
}

func TestTouchThreadOnlyMovesForward(t *testing.T) {
	conn := dbtest.Open(t)
	a, b := dbtest.CreateUser(t, conn, "a"), dbtest.CreateUser(t, conn, "b")
	repo := repositories.NewMessageRepo(conn)
	ctx := context.Background()
	msg := insert(t, repo, a.ID, b.ID, nil, t0)

	require.NoError(t, repo.TouchThread(ctx, msg.ID, t0.Add(time.Minute)))
	require.NoError(t, repo.TouchThread(ctx, msg.ID, t0.Add(-time.Minute)))

	got, err := repo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.ThreadTouchedAt.Equal(t0.Add(time.Minute)))
}

func TestListRootsAndReplies(t *testing.T) {
	conn := dbtest.Open(t)
	a, b, c := dbtest.CreateUser(t, conn, "a"), dbtest.CreateUser(t, conn, "b"), dbtest.CreateUser(t, conn, "c")
	repo := repositories.NewMessageRepo(conn)
	ctx := context.Background()

	r1 := insert(t, repo, a.ID, b.ID, nil, t0)
	r2 := insert(t, repo, c.ID, a.ID, nil, t0.Add(time.Second))
	reply2 := insert(t, repo, b.ID, a.ID, &r1.ID, t0.Add(3*time.Second))
	reply1 := insert(t, repo, a.ID, b.ID, &r1.ID, t0.Add(2*time.Second))
	insert(t, repo, b.ID, c.ID, nil, t0)

	roots, err := repo.ListRoots(ctx, a.ID, nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, r2.ID, roots[0].ID)
	assert.Equal(t, r1.ID, roots[1].ID)

	roots, err = repo.ListRoots(ctx, a.ID, &b.ID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, r1.ID, roots[0].ID)

	replies, err := repo.ListReplies(ctx, []int{r1.ID, r2.ID})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, reply1.ID, replies[0].ID)
	assert.Equal(t, reply2.ID, replies[1].ID)

	none, err := repo.ListReplies(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUnreadQueries(t *testing.T) {
	conn := dbtest.Open(t)
	a, b := dbtest.CreateUser(t, conn, "a"), dbtest.CreateUser(t, conn, "b")
	repo := repositories.NewMessageRepo(conn)
	ctx := context.Background()

	m1 := insert(t, repo, a.ID, b.ID, nil, t0)
	m2 := insert(t, repo, a.ID, b.ID, nil, t0.Add(time.Second))
	m3 := insert(t, repo, b.ID, a.ID, nil, t0.Add(2*time.Second))

	count, err := repo.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	recipients, err := repo.ListUnreadRecipients(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, recipients)

	changed, err := repo.MarkRead(ctx, []int{m1.ID, m3.ID}, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	unread, err := repo.ListUnread(ctx, b.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, m2.ID, unread[0].ID)

	changed, err = repo.MarkRead(ctx, nil, b.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestHistoryAndNotifications(t *testing.T) {
	conn := dbtest.Open(t)
	a, b := dbtest.CreateUser(t, conn, "a"), dbtest.CreateUser(t, conn, "b")
	messages := repositories.NewMessageRepo(conn)
	history := repositories.NewHistoryRepo(conn)
	notifications := repositories.NewNotificationRepo(conn)
	ctx := context.Background()
	msg := insert(t, messages, a.ID, b.ID, nil, t0)

	for i, content := range []string{"v1", "v2"} {
		_, err := history.CreateSnapshot(ctx, models.MessageHistory{
			MessageID: msg.ID, Content: content, EditedAt: t0.Add(time.Duration(i) * time.Minute), EditedBy: &a.ID,
		})
		require.NoError(t, err)
	}
	snapshots, err := history.ListForMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "v2", snapshots[0].Content)
	require.NotNil(t, snapshots[0].EditedBy)
	assert.Equal(t, a.ID, *snapshots[0].EditedBy)

	n, err := notifications.CreateNotification(ctx, models.Notification{RecipientID: b.ID, MessageID: msg.ID, CreatedAt: t0})
	require.NoError(t, err)
	assert.False(t, n.IsRead)

	list, err := notifications.ListForUser(ctx, b.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	changed, err := notifications.MarkRead(ctx, []int{n.ID}, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	list, err = notifications.ListForUser(ctx, b.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUsers(t *testing.T) {
	conn := dbtest.Open(t)
	users := repositories.NewUserRepo(conn)
	ctx := context.Background()

	u, err := users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	exists, err := users.UserExists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := users.GetUsers(ctx, []int{u.ID, 9999})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Username)

	_, err = users.CreateUser(ctx, "alice", "")
	assert.Error(t, err)

	deleted, err := users.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	exists, err = users.UserExists(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithTxRollsBack(t *testing.T) {
	conn := dbtest.Open(t)
	store := repositories.NewStore(conn)
	ctx := context.Background()

	err := store.WithTx(ctx, func(repos repositories.Repositories) error {
		if _, err := repos.Users.CreateUser(ctx, "ghost", ""); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	assert.Equal(t, 0, dbtest.Count(t, conn, `SELECT COUNT(*) FROM users`))

	require.NoError(t, store.WithTx(ctx, func(repos repositories.Repositories) error {
		_, err := repos.Users.CreateUser(ctx, "kept", "")
		return err
	}))
	assert.Equal(t, 1, dbtest.Count(t, conn, `SELECT COUNT(*) FROM users`))
}
