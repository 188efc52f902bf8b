package repository

import (
	"context"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	Exists(ctx context.Context, userID string, category domain.NotificationCategory, relatedID string) (bool, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
}
