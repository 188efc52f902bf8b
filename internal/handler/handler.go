package handler

import (
	"context"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/bagdasarian/time-tracker/internal/service"
	"github.com/sirupsen/logrus"
)

// Authenticator строит сессию из заголовка Authorization
type Authenticator interface {
	ParseHeader(header string) (domain.Session, error)
}

// Views - согласованное представление пользователя
type Views interface {
	Snapshot(userID string) (reconciler.View, bool)
	Refresh(ctx context.Context, userID string, collection repository.Collection) error
}

type Services struct {
	Tracker       service.TrackerService
	Projects      service.ProjectService
	Tasks         service.TaskService
	Reports       service.ReportService
	Notifications service.NotificationService
	Sessions      service.SessionService
}

type Handler struct {
	trackerService      service.TrackerService
	projectService      service.ProjectService
	taskService         service.TaskService
	reportService       service.ReportService
	notificationService service.NotificationService
	sessionService      service.SessionService
	views               Views
	auth                Authenticator
	log                 logrus.FieldLogger
	now                 func() time.Time
}

func NewHandler(services Services, views Views, auth Authenticator, log logrus.FieldLogger) *Handler {
	return &Handler{
		trackerService:      services.Tracker,
		projectService:      services.Projects,
		taskService:         services.Tasks,
		reportService:       services.Reports,
		notificationService: services.Notifications,
		sessionService:      services.Sessions,
		views:               views,
		auth:                auth,
		log:                 log,
		now:                 time.Now,
	}
}
