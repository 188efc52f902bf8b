package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bagdasarian/time-tracker/internal/auth"
	"github.com/bagdasarian/time-tracker/internal/config"
	"github.com/bagdasarian/time-tracker/internal/db"
	"github.com/bagdasarian/time-tracker/internal/handler"
	"github.com/bagdasarian/time-tracker/internal/handler/server"
	"github.com/bagdasarian/time-tracker/internal/logging"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
	"github.com/bagdasarian/time-tracker/internal/repository/postgres"
	"github.com/bagdasarian/time-tracker/internal/scheduler"
	"github.com/bagdasarian/time-tracker/internal/service"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Auth is not configured: %v", err)
	}

	database := db.MustLoad(cfg)
	log.Info("Successfully connected to database!")
	defer database.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dsn := db.DSN(cfg)
	feed := postgres.NewChangeFeed(func(ctx context.Context) (postgres.Listener, error) {
		conn, err := db.NewListenerConn(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, log.WithField("component", "changefeed"))
	go func() {
		if err := feed.Run(ctx); err != nil {
			log.WithError(err).Error("change feed stopped")
		}
	}()

	repos := postgres.NewRepositories(database)
	tx := postgres.NewTransactor(database)

	views := reconciler.New(repos, feed, log.WithField("component", "reconciler"), reconciler.Options{
		BreakerTimeout: cfg.Tracker.BreakerTimeout,
	})
	defer views.Shutdown()

	jobs := scheduler.NewScheduler(log.WithField("component", "scheduler"))
	defer jobs.Stop()

	trackerService := service.NewTrackerService(repos, tx, views, log.WithField("component", "tracker"), nil)
	views.SetObserver(trackerService)

	notificationService := service.NewNotificationService(repos, log.WithField("component", "notifications"))

	h := handler.NewHandler(handler.Services{
		Tracker:       trackerService,
		Projects:      service.NewProjectService(repos, tx, trackerService, log),
		Tasks:         service.NewTaskService(repos, tx, trackerService, log),
		Reports:       service.NewReportService(repos, trackerService, cfg.Tracker.Location(), log),
		Notifications: notificationService,
		Sessions:      service.NewSessionService(views, jobs, notificationService, cfg.Tracker.ScanInterval, log, nil),
	}, views, tokens, log)
	srv := server.NewServer(h, cfg.HTTP.Addr, log)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	stop()
}
