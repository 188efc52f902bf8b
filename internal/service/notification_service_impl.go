package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/duration"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type notificationService struct {
	repos repository.Repositories
	log   logrus.FieldLogger
}

func NewNotificationService(repos repository.Repositories, log logrus.FieldLogger) NotificationService {
	return &notificationService{
		repos: repos,
		log:   log,
	}
}

func (s *notificationService) List(ctx context.Context, sess domain.Session) ([]*domain.Notification, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repos.Notifications.ListByUser(ctx, sess.UserID)
}

func (s *notificationService) UnreadCount(ctx context.Context, sess domain.Session) (int, error) {
	notifications, err := s.List(ctx, sess)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, sess domain.Session, id string) error {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}
	return s.repos.Notifications.MarkRead(ctx, sess.UserID, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, sess domain.Session) error {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}
	return s.repos.Notifications.MarkAllRead(ctx, sess.UserID)
}

func (s *notificationService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}
	return s.repos.Notifications.Delete(ctx, sess.UserID, id)
}

func (s *notificationService) Scan(ctx context.Context, sess domain.Session, now time.Time) (int, error) {
	if sess.UserID == "" {
		return 0, domain.ErrUnauthorized
	}

	tasks, err := s.repos.Tasks.ListByUser(ctx, sess.UserID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, task := range tasks {
		if task.Status == domain.TaskStatusCompleted {
			continue
		}

		if duration.IsDeadlineApproaching(task.Deadline, now) {
			msg := fmt.Sprintf("Deadline for %q is %s", task.Title, task.Deadline.UTC().Format("Jan 02, 15:04 MST"))
			ok, err := s.notifyOnce(ctx, sess.UserID, domain.NotificationDeadline, task.ID, msg)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}

		if task.EstimatedMinutes == nil || *task.EstimatedMinutes <= 0 {
			continue
		}
		entries, err := s.repos.TimeEntries.ListByTask(ctx, task.ID)
		if err != nil {
			return created, err
		}
		if percent := duration.ProgressPercent(task, entries); percent >= 100 {
			msg := fmt.Sprintf("Time spent on %q reached %d%% of the estimate", task.Title, percent)
			ok, err := s.notifyOnce(ctx, sess.UserID, domain.NotificationThreshold, task.ID, msg)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}

	if created > 0 {
		s.log.WithFields(logrus.Fields{
			"user_id": sess.UserID,
			"created": created,
		}).Info("notifications created")
	}
	return created, nil
}

// notifyOnce создает уведомление, если по задаче еще нет уведомления этой категории
func (s *notificationService) notifyOnce(
	ctx context.Context,
	userID string,
	category domain.NotificationCategory,
	taskID, message string,
) (bool, error) {
	exists, err := s.repos.Notifications.Exists(ctx, userID, category, taskID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	related := taskID
	err = s.repos.Notifications.Create(ctx, &domain.Notification{
		UserID:    userID,
		Message:   message,
		Category:  category,
		RelatedID: &related,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
