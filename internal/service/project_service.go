package service

import (
	"context"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

// ProjectInput - поля проекта, задаваемые пользователем
type ProjectInput struct {
	Name        string
	Description *string
	IsShared    bool
}

type ProjectService interface {
	Create(ctx context.Context, sess domain.Session, in ProjectInput) (*domain.Project, error)
	Get(ctx context.Context, sess domain.Session, id string) (*domain.Project, error)

	// List возвращает собственные и общие проекты
	List(ctx context.Context, sess domain.Session) ([]*domain.Project, error)

	Update(ctx context.Context, sess domain.Session, id string, in ProjectInput) (*domain.Project, error)

	// Delete удаляет проект вместе с задачами и их записями в одной транзакции
	Delete(ctx context.Context, sess domain.Session, id string) error
}
