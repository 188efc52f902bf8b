package repository

import (
	"context"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// LockForUpdate блокирует строку пользователя до конца транзакции
	LockForUpdate(ctx context.Context, id string) error
}
