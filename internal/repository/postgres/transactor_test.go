package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactor_WithinTx(t *testing.T) {
	t.Run("commit при успешном выполнении", func(t *testing.T) {
		db, mock := setupMockDB(t)
		tx := NewTransactor(db)

		end := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
		mock.ExpectExec("UPDATE time_entries").
			WithArgs("e1", end, int64(60)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tx.WithinTx(t.Context(), func(ctx context.Context, repos repository.Repositories) error {
			if err := repos.Users.LockForUpdate(ctx, "u1"); err != nil {
				return err
			}
			return repos.TimeEntries.Close(ctx, "e1", end, 60)
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback при ошибке в fn", func(t *testing.T) {
		db, mock := setupMockDB(t)
		tx := NewTransactor(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		fnErr := domain.ErrInvalidTask
		err := tx.WithinTx(t.Context(), func(ctx context.Context, repos repository.Repositories) error {
			return fnErr
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTask, "ошибка fn возвращается без изменений")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка начала транзакции", func(t *testing.T) {
		db, mock := setupMockDB(t)
		tx := NewTransactor(db)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		called := false
		err := tx.WithinTx(t.Context(), func(ctx context.Context, repos repository.Repositories) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.False(t, called)
	})

	t.Run("ошибка commit", func(t *testing.T) {
		db, mock := setupMockDB(t)
		tx := NewTransactor(db)

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := tx.WithinTx(t.Context(), func(ctx context.Context, repos repository.Repositories) error {
			return nil
		})

		assert.ErrorIs(t, err, domain.ErrPersistence)
	})
}
