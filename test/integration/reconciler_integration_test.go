//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/bagdasarian/time-tracker/internal/aggregation"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/bagdasarian/time-tracker/internal/repository/postgres"
	"github.com/bagdasarian/time-tracker/internal/service"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeFeedDeliversTriggerNotifications(t *testing.T) {
	tdb := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repos, _ := newRepositories(tdb.DB)
	logger, _ := test.NewNullLogger()

	feed := postgres.NewChangeFeed(listenerDialer(tdb.DSN), logger)
	go feed.Run(ctx)

	f := seed(t, ctx, repos, "erin@example.com", false)
	changes, err := feed.Subscribe(ctx, f.User.ID, repository.CollectionTimeEntries)
	require.NoError(t, err)

	// LISTEN выполняется асинхронно: повторяем вставку, пока уведомление не придет
	require.Eventually(t, func() bool {
		entry := &domain.TimeEntry{TaskID: f.Task.ID, UserID: f.User.ID, StartTime: time.Now().UTC()}
		end := entry.StartTime.Add(time.Minute)
		secs := int64(60)
		entry.EndTime, entry.Duration = &end, &secs
		if err := repos.TimeEntries.Create(ctx, entry); err != nil {
			return false
		}

		select {
		case change := <-changes:
			return change.UserID == f.User.ID && change.Collection == repository.CollectionTimeEntries
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)
}

func TestChangeFeedFansOutSharedProjectChanges(t *testing.T) {
	tdb := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repos, _ := newRepositories(tdb.DB)
	logger, _ := test.NewNullLogger()

	feed := postgres.NewChangeFeed(listenerDialer(tdb.DSN), logger)
	go feed.Run(ctx)

	owner := seed(t, ctx, repos, "olga@example.com", true)
	guest := seed(t, ctx, repos, "gleb@example.com", false)
	changes, err := feed.Subscribe(ctx, guest.User.ID, repository.CollectionTasks)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task := &domain.Task{Title: "Shared work", ProjectID: owner.Project.ID, UserID: owner.User.ID,
			Status: domain.TaskStatusNotStarted, Priority: domain.PriorityMedium}
		if err := repos.Tasks.Create(ctx, task); err != nil {
			return false
		}

		select {
		case change := <-changes:
			return change.Shared && change.UserID == owner.User.ID
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	visible, err := repos.Tasks.ListVisible(ctx, guest.User.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(visible))
	for _, task := range visible {
		ids = append(ids, task.ID)
	}
	assert.Contains(t, ids, owner.Task.ID)
	assert.Contains(t, ids, guest.Task.ID)
}

func TestReconcilerFollowsStoreChanges(t *testing.T) {
	tdb := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repos, tx := newRepositories(tdb.DB)
	logger, _ := test.NewNullLogger()

	feed := postgres.NewChangeFeed(listenerDialer(tdb.DSN), logger)
	go feed.Run(ctx)

	views := reconciler.New(repos, feed, logger, reconciler.Options{})
	t.Cleanup(views.Shutdown)

	f := seed(t, ctx, repos, "frank@example.com", false)
	sess := domain.Session{UserID: f.User.ID}
	require.NoError(t, views.Open(ctx, sess))

	view, ok := views.Snapshot(f.User.ID)
	require.True(t, ok)
	assert.True(t, view.EntriesLoaded)
	assert.Nil(t, view.Active)
	assert.Len(t, view.Tasks, 1)

	tracker := service.NewTrackerService(repos, tx, views, logger, nil)
	views.SetObserver(tracker)

	entry, err := tracker.Start(ctx, sess, f.Task.ID, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		if err := views.Refresh(ctx, f.User.ID, repository.CollectionTimeEntries); err != nil {
			return false
		}
		view, _ := views.Snapshot(f.User.ID)
		return view.Active != nil && view.Active.ID == entry.ID
	}, 10*time.Second, 100*time.Millisecond)
}

func TestReportFromStore(t *testing.T) {
	tdb := setupTestDB(t)
	ctx := context.Background()
	repos, _ := newRepositories(tdb.DB)
	logger, _ := test.NewNullLogger()

	f := seed(t, ctx, repos, "grace@example.com", false)
	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, secs := range []int64{3600, 1800} {
		start := day.Add(time.Duration(i) * 2 * time.Hour)
		end := start.Add(time.Duration(secs) * time.Second)
		s := secs
		require.NoError(t, repos.TimeEntries.Create(ctx, &domain.TimeEntry{
			TaskID: f.Task.ID, UserID: f.User.ID, StartTime: start, EndTime: &end, Duration: &s,
		}))
	}

	reports := service.NewReportService(repos, nil, time.UTC, logger)
	from, to := day, day.Add(24*time.Hour)

	report, err := reports.Generate(ctx, domain.Session{UserID: f.User.ID}, service.ReportFilter{
		From:    &from,
		To:      &to,
		GroupBy: aggregation.GroupByProject,
	})

	require.NoError(t, err)
	require.Len(t, report.Buckets, 1)
	assert.Equal(t, f.Project.Name, report.Buckets[0].Label)
	assert.Equal(t, int64(5400), report.TotalSeconds)
}
