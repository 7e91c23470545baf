package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockSQL(t *testing.T) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)
	return NewSQL(db), mock
}

func TestSQL_GetNotFound(t *testing.T) {
	store, mock := newMockSQL(t)
	mock.ExpectQuery("SELECT \\* FROM `documents`").
		WillReturnRows(sqlmock.NewRows([]string{"path", "id", "data", "created_at", "updated_at"}))

	_, err := store.Get(context.Background(), "users", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_QueryDecodesAndFilters(t *testing.T) {
	store, mock := newMockSQL(t)
	rows := sqlmock.NewRows([]string{"path", "id", "data"}).
		AddRow("bookings", "a", `{"buyer":"Zara","createdBy":"alice"}`).
		AddRow("bookings", "b", `{"buyer":"H&M","createdBy":"bob"}`)
	mock.ExpectQuery("SELECT \\* FROM `documents` WHERE .*path = \\?").
		WithArgs("bookings").
		WillReturnRows(rows)

	got, err := store.Query(context.Background(), Query{
		Path:    "bookings",
		Filters: []Filter{Where("createdBy", Eq, "bob")},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "H&M", got[0].String("buyer"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_QueryRejectsCorruptRow(t *testing.T) {
	store, mock := newMockSQL(t)
	mock.ExpectQuery("SELECT \\* FROM `documents`").
		WillReturnRows(sqlmock.NewRows([]string{"path", "id", "data"}).AddRow("bookings", "a", `{not json`))

	_, err := store.Query(context.Background(), Query{Path: "bookings"})
	assert.Error(t, err)
}

const (
	upsertSQL = "INSERT INTO `documents` .*ON DUPLICATE KEY UPDATE"
	lockSQL   = "SELECT \\* FROM `documents` .*FOR UPDATE"
	updateSQL = "UPDATE `documents` SET `data`=\\?"
	deleteSQL = "DELETE FROM `documents` WHERE"
)

// woken reports whether a change notification for path is pending.
func woken(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestSQL_SetUpserts(t *testing.T) {
	store, mock := newMockSQL(t)
	_, wake := store.hub.register("bookings")

	mock.ExpectBegin()
	mock.ExpectExec(upsertSQL).
		WithArgs("bookings", "a", `{"buyer":"Zara","qty":3}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Set(context.Background(), "bookings", "a", map[string]any{"buyer": "Zara", "qty": 3, "gone": DeleteField})
	require.NoError(t, err)
	assert.True(t, woken(wake))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_UpdateMergesUnderLock(t *testing.T) {
	store, mock := newMockSQL(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"path", "id", "data"}).
			AddRow("bookings", "a", `{"buyer":"Zara","note":"old","tmp":1}`))
	mock.ExpectExec(updateSQL).
		WithArgs(`{"buyer":"Zara","note":"rush"}`, sqlmock.AnyArg(), "bookings", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), "bookings", "a", map[string]any{"note": "rush", "tmp": DeleteField})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_UpdateMissingRollsBack(t *testing.T) {
	store, mock := newMockSQL(t)
	_, wake := store.hub.register("bookings")

	mock.ExpectBegin()
	mock.ExpectQuery(lockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"path", "id", "data"}))
	mock.ExpectRollback()

	err := store.Update(context.Background(), "bookings", "ghost", map[string]any{"note": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, woken(wake))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Delete(t *testing.T) {
	store, mock := newMockSQL(t)
	_, wake := store.hub.register("bookings")

	mock.ExpectBegin()
	mock.ExpectExec(deleteSQL).
		WithArgs("bookings", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Delete(context.Background(), "bookings", "a"))
	assert.True(t, woken(wake))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_BatchCommitsTogether(t *testing.T) {
	store, mock := newMockSQL(t)
	_, bookings := store.hub.register("bookings")
	_, buyers := store.hub.register("buyers")

	mock.ExpectBegin()
	mock.ExpectExec(upsertSQL).
		WithArgs("bookings", "a", `{"buyer":"Zara"}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteSQL).
		WithArgs("buyers", "old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Batch(context.Background(), []Write{
		{Kind: WriteSet, Path: "bookings", ID: "a", Data: map[string]any{"buyer": "Zara"}},
		{Kind: WriteDelete, Path: "buyers", ID: "old"},
	})
	require.NoError(t, err)
	assert.True(t, woken(bookings))
	assert.True(t, woken(buyers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_BatchRollsBackOnFailedWrite(t *testing.T) {
	store, mock := newMockSQL(t)
	_, bookings := store.hub.register("bookings")
	_, buyers := store.hub.register("buyers")
	boom := errors.New("deadlock")

	mock.ExpectBegin()
	mock.ExpectExec(upsertSQL).
		WithArgs("bookings", "a", `{"buyer":"Zara"}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteSQL).
		WithArgs("buyers", "old").
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.Batch(context.Background(), []Write{
		{Kind: WriteSet, Path: "bookings", ID: "a", Data: map[string]any{"buyer": "Zara"}},
		{Kind: WriteDelete, Path: "buyers", ID: "old"},
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write 1")
	assert.False(t, woken(bookings))
	assert.False(t, woken(buyers))
	assert.NoError(t, mock.ExpectationsWereMet())
}
