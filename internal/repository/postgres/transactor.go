package postgres

import (
	"context"
	"database/sql"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
)

type transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *transactor {
	return &transactor{db: db}
}

// NewRepositories собирает репозитории поверх пула соединений
func NewRepositories(db *sql.DB) repository.Repositories {
	return repository.Repositories{
		Users:         NewUserRepository(db),
		Projects:      NewProjectRepository(db),
		Tasks:         NewTaskRepository(db),
		TimeEntries:   NewTimeEntryRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback()

	repos := repository.Repositories{
		Users:         NewUserRepositoryWithTx(tx),
		Projects:      NewProjectRepositoryWithTx(tx),
		Tasks:         NewTaskRepositoryWithTx(tx),
		TimeEntries:   NewTimeEntryRepositoryWithTx(tx),
		Notifications: NewNotificationRepositoryWithTx(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.NewPersistenceError("commit transaction", err)
	}
	return nil
}
