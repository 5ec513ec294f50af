package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"course-portal/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postgresMocks struct {
	get    *sqlmock.ExpectedPrepare
	set    *sqlmock.ExpectedPrepare
	delete *sqlmock.ExpectedPrepare
}

func setupPostgresStoreMocks(mock sqlmock.Sqlmock) postgresMocks {
	return postgresMocks{
		get:    mock.ExpectPrepare(`SELECT value FROM session_kv WHERE key = \$1`),
		set:    mock.ExpectPrepare(`INSERT INTO session_kv`),
		delete: mock.ExpectPrepare(`DELETE FROM session_kv WHERE key = \$1`),
	}
}

func newMockedPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, postgresMocks) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mocks := setupPostgresStoreMocks(mock)
	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	return store, mock, mocks
}

func TestNewPostgresStore(t *testing.T) {
	t.Run("successful_creation", func(t *testing.T) {
		store, mock, _ := newMockedPostgresStore(t)
		assert.NotNil(t, store)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails_when_prepare_get_fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPrepare(`SELECT value FROM session_kv`).WillReturnError(errors.New("prepare failed"))

		store, err := NewPostgresStore(db)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "failed to prepare get statement")
	})
}

func TestPostgresStore_Get(t *testing.T) {
	t.Run("returns_value", func(t *testing.T) {
		store, mock, mocks := newMockedPostgresStore(t)

		mocks.get.ExpectQuery().WithArgs("c1:token").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("T"))

		value, err := store.Get(context.Background(), "c1:token")
		require.NoError(t, err)
		assert.Equal(t, "T", value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_row_is_key_not_found", func(t *testing.T) {
		store, mock, mocks := newMockedPostgresStore(t)

		mocks.get.ExpectQuery().WithArgs("token").WillReturnError(sql.ErrNoRows)

		_, err := store.Get(context.Background(), "token")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database_error", func(t *testing.T) {
		store, mock, mocks := newMockedPostgresStore(t)

		mocks.get.ExpectQuery().WithArgs("token").WillReturnError(errors.New("connection reset"))

		_, err := store.Get(context.Background(), "token")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrKeyNotFound)
		assert.Contains(t, err.Error(), "failed to get token")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Set(t *testing.T) {
	t.Run("upserts_value", func(t *testing.T) {
		store, mock, mocks := newMockedPostgresStore(t)

		mocks.set.ExpectExec().WithArgs("user", `{"id":1}`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Set(context.Background(), "user", `{"id":1}`))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database_error", func(t *testing.T) {
		store, _, mocks := newMockedPostgresStore(t)

		mocks.set.ExpectExec().WithArgs("user", "x").WillReturnError(errors.New("read only"))

		err := store.Set(context.Background(), "user", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set user")
	})
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock, mocks := newMockedPostgresStore(t)

	mocks.delete.ExpectExec().WithArgs("token").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS session_kv`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
