package service

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type NotificationService interface {
	List(ctx context.Context, sess domain.Session) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, sess domain.Session) (int, error)
	MarkRead(ctx context.Context, sess domain.Session, id string) error
	MarkAllRead(ctx context.Context, sess domain.Session) error
	Delete(ctx context.Context, sess domain.Session, id string) error

	// Scan создает уведомления о приближающихся дедлайнах и исчерпанной оценке.
	// По каждой паре (категория, задача) создается не более одного уведомления.
	// Возвращает количество созданных уведомлений.
	Scan(ctx context.Context, sess domain.Session, now time.Time) (int, error)
}
