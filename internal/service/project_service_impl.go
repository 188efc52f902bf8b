package service

import (
	"context"
	"strings"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type projectService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	active ActiveInvalidator
	log    logrus.FieldLogger
}

func NewProjectService(repos repository.Repositories, tx repository.Transactor, active ActiveInvalidator, log logrus.FieldLogger) ProjectService {
	return &projectService{
		repos:  repos,
		tx:     tx,
		active: active,
		log:    log,
	}
}

func (s *projectService) Create(ctx context.Context, sess domain.Session, in ProjectInput) (*domain.Project, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewInvalidInputError("project name is required")
	}

	project := &domain.Project{
		Name:        name,
		Description: in.Description,
		UserID:      sess.UserID,
		IsShared:    in.IsShared,
	}
	if err := s.repos.Projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    sess.UserID,
		"project_id": project.ID,
	}).Info("project created")
	return project, nil
}

func (s *projectService) Get(ctx context.Context, sess domain.Session, id string) (*domain.Project, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	project, err := s.repos.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.VisibleTo(sess.UserID) {
		return nil, domain.NewNotFoundError("project with id " + id)
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, sess domain.Session) ([]*domain.Project, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repos.Projects.ListVisible(ctx, sess.UserID)
}

func (s *projectService) Update(ctx context.Context, sess domain.Session, id string, in ProjectInput) (*domain.Project, error) {
	project, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewInvalidInputError("project name is required")
	}
	project.Name = name
	project.Description = in.Description
	project.IsShared = in.IsShared

	if err := s.repos.Projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}

	var deletedTasks int
	var affected []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		tasks, err := repos.Tasks.ListByProject(ctx, id)
		if err != nil {
			return err
		}
		// сверху вниз: записи задач, затем задачи, затем проект
		for _, task := range tasks {
			users, err := activeUsers(ctx, repos, task.ID)
			if err != nil {
				return err
			}
			affected = append(affected, users...)
			if err := repos.TimeEntries.DeleteByTaskID(ctx, task.ID); err != nil {
				return err
			}
		}
		if err := repos.Tasks.DeleteByProjectID(ctx, id); err != nil {
			return err
		}
		deletedTasks = len(tasks)
		return repos.Projects.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	invalidateAll(s.active, affected)

	s.log.WithFields(logrus.Fields{
		"user_id":    sess.UserID,
		"project_id": id,
		"tasks":      deletedTasks,
	}).Info("project deleted")
	return nil
}

// owned возвращает проект, если сессия принадлежит его владельцу
func (s *projectService) owned(ctx context.Context, sess domain.Session, id string) (*domain.Project, error) {
	project, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != sess.UserID {
		return nil, domain.ErrForbidden
	}
	return project, nil
}
