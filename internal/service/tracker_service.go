package service

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
)

type TrackerService interface {
	// Start начинает учет времени по задаче, предварительно остановив активную запись пользователя
	Start(ctx context.Context, sess domain.Session, taskID string, notes *string) (*domain.TimeEntry, error)

	// Stop останавливает активную запись пользователя
	Stop(ctx context.Context, sess domain.Session, entryID string) (*domain.TimeEntry, error)

	// Complete останавливает все активные записи по задаче и завершает ее
	Complete(ctx context.Context, sess domain.Session, taskID string) (*domain.Task, error)

	// ActiveEntry возвращает текущую активную запись или nil
	ActiveEntry(ctx context.Context, sess domain.Session) (*domain.TimeEntry, error)

	// TotalInRange суммирует секунды записей, начатых в [from, to]
	TotalInRange(ctx context.Context, sess domain.Session, from, to time.Time) (int64, error)

	UpdateEntry(ctx context.Context, sess domain.Session, entryID string, patch domain.TimeEntryPatch) (*domain.TimeEntry, error)
	DeleteEntry(ctx context.Context, sess domain.Session, entryID string) error
	ListEntries(ctx context.Context, sess domain.Session, filter domain.EntryFilter) ([]*domain.TimeEntry, error)

	reconciler.ActiveObserver
	ActiveInvalidator
}

// ActiveInvalidator сбрасывает запомненную активную запись пользователя,
// следующий ActiveEntry перечитает ее из представления или хранилища
type ActiveInvalidator interface {
	Invalidate(userID string)
}

// ActiveView - источник согласованного представления пользователя
type ActiveView interface {
	Snapshot(userID string) (reconciler.View, bool)
}
