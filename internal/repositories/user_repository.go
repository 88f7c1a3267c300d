package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

// UserRepository reads identities owned by the auth service.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email string) (models.User, error)
	GetUsers(ctx context.Context, ids []int) ([]models.User, error)
	UserExists(ctx context.Context, userID int) (bool, error)
	DeleteUser(ctx context.Context, userID int) (int64, error)
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db Querier
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db Querier) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts an identity row.
func (r *UserRepo) CreateUser(ctx context.Context, username, email string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`INSERT INTO users (username, email) VALUES (?, ?) RETURNING id, username, email`), username, email).
		StructScan(&user)
	return user, err
}

// GetUsers fetches multiple users in one query. Unknown ids are skipped.
func (r *UserRepo) GetUsers(ctx context.Context, ids []int) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	query, args, err := sqlx.In(`SELECT id, username, email FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// UserExists checks whether the identity is known.
func (r *UserRepo) UserExists(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`), userID)
	return exists, err
}

// DeleteUser removes the identity row.
func (r *UserRepo) DeleteUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id=?`), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
