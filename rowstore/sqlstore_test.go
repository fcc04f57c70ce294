package rowstore

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestSQLStoreStatements(t *testing.T) {
	ctx := context.Background()
	store, mock := newMock(t)

	values := NewValues(3).Put("id", "1").Put("name", "bob").Put("active", true)

	mock.ExpectExec("INSERT INTO users(id, name, active) VALUES(?, ?, ?)").
		WithArgs("1", "bob", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Insert(ctx, "users", values))

	mock.ExpectExec("INSERT OR REPLACE INTO users(id, name, active) VALUES(?, ?, ?)").
		WithArgs("1", "bob", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Replace(ctx, "users", values))

	mock.ExpectExec("UPDATE users SET id=?, name=?, active=? WHERE id=?").
		WithArgs("1", "bob", int64(1), "1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := store.Update(ctx, "users", values, "id=?", "1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	mock.ExpectExec("DELETE FROM users WHERE age < ?").
		WithArgs(18).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err = store.Delete(ctx, "users", "age < ?", 18)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = store.Delete(ctx, "users", "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, name FROM users WHERE age > ? ORDER BY name LIMIT ?").
		WithArgs(18, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("1", "bob").AddRow("2", []byte("amy")))
	rows, err := store.Query(ctx, &Query{
		Table:   "users",
		Columns: []string{"id", "name"},
		Where:   "age > ?",
		Args:    []any{18, 10},
		OrderBy: "name",
		Limit:   "?",
	})
	require.NoError(t, err)
	var names []string
	for rows.Next() {
		row := rows.Row()
		names = append(names, row.GetString("name"))
		require.NoError(t, row.Err())
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"bob", "amy"}, names)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreErrors(t *testing.T) {
	ctx := context.Background()
	store, mock := newMock(t)

	require.ErrorIs(t, store.Insert(ctx, "users", NewValues(0)), ErrNoColumns)
	_, err := store.Update(ctx, "users", NewValues(0), "id=?", "1")
	require.ErrorIs(t, err, ErrNoColumns)

	boom := errors.New("boom")
	mock.ExpectExec("INSERT INTO users(id) VALUES(?)").WithArgs("1").WillReturnError(boom)
	require.ErrorIs(t, store.Insert(ctx, "users", NewValues(1).Put("id", "1")), boom)

	mock.ExpectQuery("SELECT * FROM users").WillReturnError(boom)
	_, err = store.Query(ctx, &Query{Table: "users"})
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreLog(t *testing.T) {
	store, mock := newMock(t)
	var logged []string
	WithLog(func(_ context.Context, query string, _ []any) {
		logged = append(logged, query)
	})(store)

	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err := store.Delete(context.Background(), "users", " ")
	require.NoError(t, err)
	assert.Equal(t, []string{"DELETE FROM users"}, logged)
}

func TestSelectSQL(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t", SelectSQL(&Query{Table: "t"}))
	assert.Equal(t, "SELECT a, b FROM t WHERE a=? LIMIT 1", SelectSQL(&Query{Table: "t", Columns: []string{"a", "b"}, Where: "a=?", Limit: "1"}))
}

// TestSQLStoreSQLite 在真实的 SQLite 上验证语句与类型转换
func TestSQLStoreSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := New(db)
	_, err = store.Exec(ctx, "CREATE TABLE IF NOT EXISTS items(id INTEGER NOT NULL PRIMARY KEY, name TEXT, ok INTEGER, price REAL)")
	require.NoError(t, err)

	require.NoError(t, store.Insert(ctx, "items", NewValues(4).Put("id", 42).Put("name", "pen").Put("ok", true).Put("price", 1.5)))
	err = store.Insert(ctx, "items", NewValues(2).Put("id", 42).Put("name", "dup"))
	require.Error(t, err, "duplicate key must not be swallowed")

	require.NoError(t, store.Replace(ctx, "items", NewValues(4).Put("id", 42).Put("name", "pencil").Put("ok", false).Put("price", 2.25)))

	// 文本形式的主键与 INTEGER 列比较
	n, err := store.Update(ctx, "items", NewValues(1).Put("price", 3.0), "id=?", KeyString(42))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := store.Query(ctx, &Query{Table: "items", Columns: []string{"id", "name", "ok", "price"}, Where: "id=?", Args: []any{"42"}})
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	row := rows.Row()
	assert.Equal(t, 42, row.GetInt("id"))
	assert.Equal(t, uint16(42), row.GetUint16("id"))
	assert.Equal(t, "pencil", row.GetString("name"))
	assert.False(t, row.GetBool("ok"))
	assert.Equal(t, 3.0, row.GetFloat64("price"))
	assert.Equal(t, float32(3), row.GetFloat32("price"))
	require.NoError(t, row.Err())
	assert.False(t, rows.Next())
	require.NoError(t, rows.Err())

	n, err = store.Delete(ctx, "items", "id=?", "42")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSQLStoreSQLiteKeyWidths(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := New(db)
	_, err = store.Exec(ctx, "CREATE TABLE IF NOT EXISTS widths(k REAL NOT NULL PRIMARY KEY, big INTEGER, name TEXT)")
	require.NoError(t, err)

	// float32 主键写入时拓宽为 float64，KeyString 必须得到相同的值
	key := float32(0.1)
	require.NoError(t, store.Insert(ctx, "widths", NewValues(3).Put("k", key).Put("big", uint64(math.MaxUint64)).Put("name", "a")))

	n, err := store.Update(ctx, "widths", NewValues(1).Put("name", "b"), "k=?", KeyString(key))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := store.Query(ctx, &Query{Table: "widths", Columns: []string{"k", "big", "name"}, Where: "big=?", Args: []any{KeyString(uint64(math.MaxUint64))}})
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	row := rows.Row()
	assert.Equal(t, key, row.GetFloat32("k"))
	assert.Equal(t, uint64(math.MaxUint64), row.GetUint64("big"))
	assert.Equal(t, "b", row.GetString("name"))
	require.NoError(t, row.Err())

	n, err = store.Delete(ctx, "widths", "k=?", KeyString(key))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
