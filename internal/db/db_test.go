package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "file:test.db?cache=shared&_foreign_keys=on", sqliteDSN("file:test.db?cache=shared"))
	assert.Equal(t, "app.db?_fk=1", sqliteDSN("app.db?_fk=1"))
	assert.Equal(t, ":memory:?_foreign_keys=off", sqliteDSN(":memory:?_foreign_keys=off"))
}

func TestConnectSQLiteEnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	conn, err := Connect(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var enabled int
	require.NoError(t, conn.GetContext(ctx, &enabled, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, enabled)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err = conn.ExecContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content, created_at, thread_touched_at) VALUES (1, 2, 'x', ?, ?)`, now, now)
	assert.Error(t, err)

	_, err = conn.ExecContext(ctx, `INSERT INTO users (username) VALUES ('a'), ('b')`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content, created_at, thread_touched_at) VALUES (1, 2, 'x', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `DELETE FROM users WHERE id=1`)
	require.NoError(t, err)

	var left int
	require.NoError(t, conn.GetContext(ctx, &left, `SELECT COUNT(*) FROM messages`))
	assert.Zero(t, left)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), "mysql", "")
	assert.Error(t, err)
}
