package service

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/scheduler"
	"github.com/sirupsen/logrus"
)

type sessionService struct {
	views         ViewLifecycle
	jobs          JobScheduler
	notifications NotificationService
	scanInterval  time.Duration
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewSessionService(
	views ViewLifecycle,
	jobs JobScheduler,
	notifications NotificationService,
	scanInterval time.Duration,
	log logrus.FieldLogger,
	clock func() time.Time,
) SessionService {
	if clock == nil {
		clock = time.Now
	}
	return &sessionService{
		views:         views,
		jobs:          jobs,
		notifications: notifications,
		scanInterval:  scanInterval,
		log:           log,
		now:           clock,
	}
}

func (s *sessionService) Open(ctx context.Context, sess domain.Session) error {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}

	if err := s.views.Open(ctx, sess); err != nil {
		return err
	}

	if s.scanInterval > 0 {
		s.jobs.Add(scanJobKey(sess.UserID), s.scanInterval, s.scanJob(sess))
	}

	s.log.WithField("user_id", sess.UserID).Info("session opened")
	return nil
}

func (s *sessionService) Close(ctx context.Context, sess domain.Session) error {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}

	s.jobs.Remove(scanJobKey(sess.UserID))
	s.views.Close(sess.UserID)

	s.log.WithField("user_id", sess.UserID).Info("session closed")
	return nil
}

func (s *sessionService) scanJob(sess domain.Session) scheduler.JobFunc {
	return func(ctx context.Context) error {
		_, err := s.notifications.Scan(ctx, sess, s.now())
		return err
	}
}

func scanJobKey(userID string) string {
	return "notifications:" + userID
}
