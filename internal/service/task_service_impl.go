package service

import (
	"context"
	"strings"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/duration"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type taskService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	active ActiveInvalidator
	log    logrus.FieldLogger
}

// NewTaskService создает сервис задач.
// active может быть nil, если указатели активных записей не используются.
func NewTaskService(repos repository.Repositories, tx repository.Transactor, active ActiveInvalidator, log logrus.FieldLogger) TaskService {
	return &taskService{
		repos:  repos,
		tx:     tx,
		active: active,
		log:    log,
	}
}

func (s *taskService) Create(ctx context.Context, sess domain.Session, in TaskInput) (*domain.Task, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	task := &domain.Task{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		ProjectID:        in.ProjectID,
		UserID:           sess.UserID,
		Status:           in.Status,
		Priority:         in.Priority,
		Deadline:         in.Deadline,
		EstimatedMinutes: in.EstimatedMinutes,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusNotStarted
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if _, err := s.visibleProject(ctx, sess, in.ProjectID); err != nil {
		return nil, err
	}

	if err := s.repos.Tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    sess.UserID,
		"task_id":    task.ID,
		"project_id": task.ProjectID,
	}).Info("task created")
	return task, nil
}

func (s *taskService) Get(ctx context.Context, sess domain.Session, id string) (*domain.Task, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	task, err := s.repos.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID == sess.UserID {
		return task, nil
	}

	project, err := s.repos.Projects.GetByID(ctx, task.ProjectID)
	if err != nil || !project.VisibleTo(sess.UserID) {
		return nil, domain.NewNotFoundError("task with id " + id)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, sess domain.Session, projectID string) ([]*domain.Task, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if projectID == "" {
		return s.repos.Tasks.ListByUser(ctx, sess.UserID)
	}

	if _, err := s.visibleProject(ctx, sess, projectID); err != nil {
		return nil, err
	}
	return s.repos.Tasks.ListByProject(ctx, projectID)
}

func (s *taskService) Update(ctx context.Context, sess domain.Session, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		// завершение останавливает активные записи, поэтому идет только через Complete
		if *patch.Status == domain.TaskStatusCompleted && task.Status != domain.TaskStatusCompleted {
			return nil, domain.NewInvalidInputError("task %s: use POST /tasks/{id}/complete to complete a task", id)
		}
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.ClearDeadline {
		task.Deadline = nil
	} else if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}
	if patch.EstimatedMinutes != nil {
		task.EstimatedMinutes = patch.EstimatedMinutes
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.repos.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}

	var affected []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		users, err := activeUsers(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := repos.TimeEntries.DeleteByTaskID(ctx, id); err != nil {
			return err
		}
		affected = users
		return repos.Tasks.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	invalidateAll(s.active, affected)

	s.log.WithFields(logrus.Fields{
		"user_id": sess.UserID,
		"task_id": id,
	}).Info("task deleted")
	return nil
}

func (s *taskService) Progress(ctx context.Context, sess domain.Session, id string) (*TaskProgress, error) {
	task, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.repos.TimeEntries.ListByTask(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TaskProgress{
		TaskID:       id,
		SpentSeconds: duration.TotalSeconds(entries),
		Percent:      duration.ProgressPercent(task, entries),
	}, nil
}

func (s *taskService) visibleProject(ctx context.Context, sess domain.Session, projectID string) (*domain.Project, error) {
	if projectID == "" {
		return nil, domain.NewInvalidInputError("project id is required")
	}
	project, err := s.repos.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.VisibleTo(sess.UserID) {
		return nil, domain.NewNotFoundError("project with id " + projectID)
	}
	return project, nil
}

func (s *taskService) owned(ctx context.Context, sess domain.Session, id string) (*domain.Task, error) {
	task, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != sess.UserID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

func validateTask(task *domain.Task) error {
	if task.Title == "" {
		return domain.NewInvalidInputError("task title is required")
	}
	if !task.Status.Valid() {
		return domain.NewInvalidInputError("invalid task status %q", task.Status)
	}
	if !task.Priority.Valid() {
		return domain.NewInvalidInputError("invalid task priority %q", task.Priority)
	}
	if task.EstimatedMinutes != nil && *task.EstimatedMinutes <= 0 {
		return domain.NewInvalidInputError("estimated minutes must be positive")
	}
	return nil
}

// activeUsers возвращает пользователей, у которых есть активная запись по задаче
func activeUsers(ctx context.Context, repos repository.Repositories, taskID string) ([]string, error) {
	active, err := repos.TimeEntries.ListActiveByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(active))
	for _, e := range active {
		users = append(users, e.UserID)
	}
	return users, nil
}

func invalidateAll(active ActiveInvalidator, userIDs []string) {
	if active == nil {
		return
	}
	for _, userID := range userIDs {
		active.Invalidate(userID)
	}
}
