package repository

import (
	"context"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// ListVisible возвращает проекты пользователя и общие проекты
	ListVisible(ctx context.Context, userID string) ([]*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
}
