package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Messages      MessageRepository
	History       HistoryRepository
	Notifications NotificationRepository
	Users         UserRepository
}

// Store hands out repositories and runs units of work in a transaction.
type Store interface {
	Repositories() Repositories
	WithTx(ctx context.Context, fn func(Repositories) error) error
}

// SQLStore is the sqlx implementation of Store.
type SQLStore struct {
	db *sqlx.DB
}

// NewStore constructs a SQLStore.
func NewStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Repositories returns repositories that run outside of a transaction.
func (s *SQLStore) Repositories() Repositories {
	return bind(s.db)
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(bind(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func bind(q Querier) Repositories {
	return Repositories{
		Messages:      NewMessageRepo(q),
		History:       NewHistoryRepo(q),
		Notifications: NewNotificationRepo(q),
		Users:         NewUserRepo(q),
	}
}
