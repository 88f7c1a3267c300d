// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/db"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

var seq atomic.Int64

// Open returns a migrated sqlite database that is closed when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	conn, err := db.Connect(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// CreateUser inserts an identity with a unique username derived from name.
func CreateUser(t testing.TB, conn *sqlx.DB, name string) models.User {
	t.Helper()
	username := fmt.Sprintf("%s-%d", name, seq.Add(1))
	user, err := repositories.NewUserRepo(conn).CreateUser(context.Background(), username, username+"@example.com")
	require.NoError(t, err)
	return user
}

// Clock returns a clock that starts at start and advances one second per call.
func Clock(start time.Time) func() time.Time {
	var ticks atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(ticks.Add(1)-1) * time.Second)
	}
}

// Count runs a COUNT query and returns the result.
func Count(t testing.TB, conn *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, conn.Get(&n, conn.Rebind(query), args...))
	return n
}
