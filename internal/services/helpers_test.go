package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/db/dbtest"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/services"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	conn     *sqlx.DB
	store    *repositories.SQLStore
	clock    services.Clock
	messages *services.MessageService
}

func newFixture(t *testing.T, opts ...services.Option) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	store := repositories.NewStore(conn)
	clock := dbtest.Clock(epoch)
	opts = append([]services.Option{services.WithClock(clock)}, opts...)
	return &fixture{
		conn:     conn,
		store:    store,
		clock:    clock,
		messages: services.NewMessageService(store, opts...),
	}
}

func (f *fixture) user(t *testing.T, name string) models.User {
	return dbtest.CreateUser(t, f.conn, name)
}

func (f *fixture) send(t *testing.T, from, to models.User, content string, parent *models.Message) models.Message {
	t.Helper()
	var parentID *int
	if parent != nil {
		parentID = &parent.ID
	}
	msg, err := f.messages.Create(context.Background(), from.ID, to.ID, content, parentID)
	require.NoError(t, err)
	return msg
}

func (f *fixture) reload(t *testing.T, id int) models.Message {
	t.Helper()
	msg, err := repositories.NewMessageRepo(f.conn).GetMessage(context.Background(), id)
	require.NoError(t, err)
	return msg
}

func (f *fixture) count(t *testing.T, query string, args ...interface{}) int {
	return dbtest.Count(t, f.conn, query, args...)
}

// faultyStore lets a test swap repositories inside every transaction.
type faultyStore struct {
	repositories.Store
	inject func(*repositories.Repositories)
}

func (s faultyStore) WithTx(ctx context.Context, fn func(repositories.Repositories) error) error {
	return s.Store.WithTx(ctx, func(repos repositories.Repositories) error {
		s.inject(&repos)
		return fn(repos)
	})
}

func withFailingNotifications(store repositories.Store) faultyStore {
	return faultyStore{Store: store, inject: func(r *repositories.Repositories) {
		r.Notifications = failingNotifications{r.Notifications}
	}}
}

func withFailingUserDelete(store repositories.Store) faultyStore {
	return faultyStore{Store: store, inject: func(r *repositories.Repositories) {
		r.Users = failingUserDelete{r.Users}
	}}
}

func withFailingContentUpdate(store repositories.Store, err error) faultyStore {
	return faultyStore{Store: store, inject: func(r *repositories.Repositories) {
		r.Messages = failingContentUpdate{MessageRepository: r.Messages, err: err}
	}}
}

type failingNotifications struct {
	repositories.NotificationRepository
}

func (failingNotifications) CreateNotification(context.Context, models.Notification) (models.Notification, error) {
	return models.Notification{}, errors.New("notifications unavailable")
}

type failingUserDelete struct {
	repositories.UserRepository
}

func (failingUserDelete) DeleteUser(context.Context, int) (int64, error) {
	return 0, errors.New("users unavailable")
}

// failingContentUpdate runs every other message call for real.
type failingContentUpdate struct {
	repositories.MessageRepository
	err error
}

func (f failingContentUpdate) UpdateContent(context.Context, int, string) (models.Message, error) {
	return models.Message{}, f.err
}

func intPtr(v int) *int { return &v }
