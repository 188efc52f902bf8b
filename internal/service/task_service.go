package service

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type TaskInput struct {
	Title            string
	Description      string
	ProjectID        string
	Status           domain.TaskStatus
	Priority         domain.Priority
	Deadline         *time.Time
	EstimatedMinutes *int
}

// TaskProgress - затраченное время относительно оценки
type TaskProgress struct {
	TaskID       string
	SpentSeconds int64
	Percent      int
}

type TaskService interface {
	Create(ctx context.Context, sess domain.Session, in TaskInput) (*domain.Task, error)
	Get(ctx context.Context, sess domain.Session, id string) (*domain.Task, error)

	// List возвращает задачи пользователя или, если указан projectID, задачи проекта
	List(ctx context.Context, sess domain.Session, projectID string) ([]*domain.Task, error)

	Update(ctx context.Context, sess domain.Session, id string, patch domain.TaskPatch) (*domain.Task, error)

	// Delete удаляет задачу вместе с ее записями времени в одной транзакции
	Delete(ctx context.Context, sess domain.Session, id string) error

	Progress(ctx context.Context, sess domain.Session, id string) (*TaskProgress, error)
}
