package service

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/scheduler"
)

// SessionService связывает жизненный цикл сессии пользователя
// с согласованным представлением и фоновой проверкой уведомлений
type SessionService interface {
	Open(ctx context.Context, sess domain.Session) error
	Close(ctx context.Context, sess domain.Session) error
}

// ViewLifecycle - открытие и закрытие представления пользователя
type ViewLifecycle interface {
	Open(ctx context.Context, sess domain.Session) error
	Close(userID string)
}

// JobScheduler - периодические задачи по ключу
type JobScheduler interface {
	Add(key string, interval time.Duration, fn scheduler.JobFunc)
	Remove(key string)
}
