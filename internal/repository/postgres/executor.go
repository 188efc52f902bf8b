package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

// DBExecutor - общий интерфейс *sql.DB и *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// classify переводит ошибку драйвера в доменную: нет строк -> NOT_FOUND, остальное -> PERSISTENCE_ERROR
func classify(err error, resource, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(resource)
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewPersistenceError(op, err)
}

// expectAffected возвращает NOT_FOUND, если запрос не затронул ни одной строки
func expectAffected(result sql.Result, resource, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError(op, err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(resource)
	}
	return nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
