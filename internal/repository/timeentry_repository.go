package repository

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type TimeEntryRepository interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	GetByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	ListByUser(ctx context.Context, userID string, filter domain.EntryFilter) ([]*domain.TimeEntry, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.TimeEntry, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.TimeEntry, error)
	ListActiveByTask(ctx context.Context, taskID string) ([]*domain.TimeEntry, error)
	// Close проставляет end_time и duration одним UPDATE только для активной записи
	Close(ctx context.Context, id string, endTime time.Time, duration int64) error
	Update(ctx context.Context, entry *domain.TimeEntry) error
	Delete(ctx context.Context, id string) error
	DeleteByTaskID(ctx context.Context, taskID string) error
}
