package service

import (
	"testing"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/mocks"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(t *testing.T) (TaskService, *mocks.Repos, *mocks.MockTransactor) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repos := mocks.NewRepos()
	tx := mocks.NewMockTransactor(repos)
	return NewTaskService(repos.Repositories(), tx, nil, logger), repos, tx
}

func intPtr(v int) *int {
	return &v
}

// recordingInvalidator запоминает пользователей, чьи указатели сброшены
type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) Invalidate(userID string) {
	r.users = append(r.users, userID)
}

func TestTaskService_Create(t *testing.T) {
	sess := domain.Session{UserID: "u1"}

	t.Run("значения по умолчанию", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)

		repos.Projects.On("GetByID", mock.Anything, "p1").Return(&domain.Project{ID: "p1", UserID: "u1"}, nil)
		repos.Tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Status == domain.TaskStatusNotStarted &&
				task.Priority == domain.PriorityMedium &&
				task.UserID == "u1"
		})).Return(nil).Once()

		task, err := svc.Create(t.Context(), sess, TaskInput{Title: "Write docs", ProjectID: "p1"})

		require.NoError(t, err)
		assert.Equal(t, "Write docs", task.Title)
		repos.AssertExpectations(t)
	})

	t.Run("задача в чужом общем проекте", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)

		repos.Projects.On("GetByID", mock.Anything, "p2").Return(&domain.Project{ID: "p2", UserID: "u2", IsShared: true}, nil)
		repos.Tasks.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.Create(t.Context(), sess, TaskInput{Title: "Review", ProjectID: "p2"})

		require.NoError(t, err)
	})

	t.Run("невалидные поля", func(t *testing.T) {
		svc, _, _ := newTaskService(t)

		cases := []TaskInput{
			{Title: " ", ProjectID: "p1"},
			{Title: "X", ProjectID: "p1", Status: "paused"},
			{Title: "X", ProjectID: "p1", Priority: "urgent"},
			{Title: "X", ProjectID: "p1", EstimatedMinutes: intPtr(-5)},
			{Title: "X", ProjectID: "p1", EstimatedMinutes: intPtr(0)},
			{Title: "X"},
		}
		for _, in := range cases {
			_, err := svc.Create(t.Context(), sess, in)
			var domainErr *domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domain.CodeInvalidInput, domainErr.Code, "%+v", in)
		}
	})

	t.Run("чужой личный проект", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)
		repos.Projects.On("GetByID", mock.Anything, "p2").Return(&domain.Project{ID: "p2", UserID: "u2"}, nil)

		_, err := svc.Create(t.Context(), sess, TaskInput{Title: "X", ProjectID: "p2"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		repos.Tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTaskService_Update(t *testing.T) {
	deadline := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("частичное обновление", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)

		task := &domain.Task{ID: "t1", Title: "Old", ProjectID: "p1", UserID: "u1",
			Status: domain.TaskStatusNotStarted, Priority: domain.PriorityLow, Deadline: &deadline}
		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(task, nil)
		repos.Tasks.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		status := domain.TaskStatusInProgress
		updated, err := svc.Update(t.Context(), domain.Session{UserID: "u1"}, "t1", domain.TaskPatch{
			Status:        &status,
			ClearDeadline: true,
		})

		require.NoError(t, err)
		assert.Equal(t, "Old", updated.Title)
		assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
		assert.Nil(t, updated.Deadline)
	})

	t.Run("не владелец", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)

		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(&domain.Task{ID: "t1", ProjectID: "p2", UserID: "u2"}, nil)
		repos.Projects.On("GetByID", mock.Anything, "p2").Return(&domain.Project{ID: "p2", UserID: "u2", IsShared: true}, nil)

		title := "Mine now"
		_, err := svc.Update(t.Context(), domain.Session{UserID: "u1"}, "t1", domain.TaskPatch{Title: &title})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("завершение только через complete", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)

		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(&domain.Task{ID: "t1", Title: "Open", ProjectID: "p1", UserID: "u1",
			Status: domain.TaskStatusInProgress, Priority: domain.PriorityMedium}, nil)

		completed := domain.TaskStatusCompleted
		_, err := svc.Update(t.Context(), domain.Session{UserID: "u1"}, "t1", domain.TaskPatch{Status: &completed})

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
		assert.Contains(t, domainErr.Message, "/complete")
		repos.Tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("оценка в ноль минут", func(t *testing.T) {
		svc, repos, _ := newTaskService(t)

		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(&domain.Task{ID: "t1", Title: "Open", ProjectID: "p1", UserID: "u1",
			Status: domain.TaskStatusInProgress, Priority: domain.PriorityMedium}, nil)

		_, err := svc.Update(t.Context(), domain.Session{UserID: "u1"}, "t1", domain.TaskPatch{EstimatedMinutes: intPtr(0)})

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
		repos.Tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestTaskService_Delete(t *testing.T) {
	t.Run("записи и задача удаляются в одной транзакции", func(t *testing.T) {
		logger, _ := test.NewNullLogger()
		repos := mocks.NewRepos()
		tx := mocks.NewMockTransactor(repos)
		invalidator := &recordingInvalidator{}
		svc := NewTaskService(repos.Repositories(), tx, invalidator, logger)

		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(&domain.Task{ID: "t1", UserID: "u1"}, nil)
		repos.TimeEntries.On("ListActiveByTask", mock.Anything, "t1").Return([]*domain.TimeEntry{
			activeEntry("e1", "t1", "u1", trackerNow),
			activeEntry("e2", "t1", "u2", trackerNow),
		}, nil).Once()
		repos.TimeEntries.On("DeleteByTaskID", mock.Anything, "t1").Return(nil).Once()
		repos.Tasks.On("Delete", mock.Anything, "t1").Return(nil).Once()

		err := svc.Delete(t.Context(), domain.Session{UserID: "u1"}, "t1")

		require.NoError(t, err)
		assert.Equal(t, 1, tx.Commits())
		assert.Equal(t, []string{"u1", "u2"}, invalidator.users)
		repos.AssertExpectations(t)
	})

	t.Run("откат не сбрасывает указатели", func(t *testing.T) {
		logger, _ := test.NewNullLogger()
		repos := mocks.NewRepos()
		tx := mocks.NewMockTransactor(repos)
		invalidator := &recordingInvalidator{}
		svc := NewTaskService(repos.Repositories(), tx, invalidator, logger)

		dbErr := domain.NewPersistenceError("delete task", assert.AnError)
		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(&domain.Task{ID: "t1", UserID: "u1"}, nil)
		repos.TimeEntries.On("ListActiveByTask", mock.Anything, "t1").
			Return([]*domain.TimeEntry{activeEntry("e1", "t1", "u1", trackerNow)}, nil).Once()
		repos.TimeEntries.On("DeleteByTaskID", mock.Anything, "t1").Return(nil).Once()
		repos.Tasks.On("Delete", mock.Anything, "t1").Return(dbErr).Once()

		err := svc.Delete(t.Context(), domain.Session{UserID: "u1"}, "t1")

		assert.Same(t, dbErr, err)
		assert.Equal(t, 1, tx.Rollbacks())
		assert.Empty(t, invalidator.users)
	})

	t.Run("после удаления задачи активной записи нет", func(t *testing.T) {
		sess := domain.Session{UserID: "u1"}
		tracker, repos, tx := newTracker(t, nil)
		logger, _ := test.NewNullLogger()
		tasks := NewTaskService(repos.Repositories(), tx, tracker, logger)

		repos.Tasks.On("GetByID", mock.Anything, "t1").Return(openTask("t1", "u1"), nil)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u1").Return([]*domain.TimeEntry{}, nil)
		expectCreate(repos, "e1")

		entry, err := tracker.Start(t.Context(), sess, "t1", nil)
		require.NoError(t, err)

		repos.TimeEntries.On("ListActiveByTask", mock.Anything, "t1").
			Return([]*domain.TimeEntry{activeEntry(entry.ID, "t1", "u1", trackerNow)}, nil).Once()
		repos.TimeEntries.On("DeleteByTaskID", mock.Anything, "t1").Return(nil).Once()
		repos.Tasks.On("Delete", mock.Anything, "t1").Return(nil).Once()

		require.NoError(t, tasks.Delete(t.Context(), sess, "t1"))

		active, err := tracker.ActiveEntry(t.Context(), sess)

		require.NoError(t, err)
		assert.Nil(t, active, "удаленная запись не остается активной")
		repos.AssertExpectations(t)
	})
}

func TestTaskService_Progress(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	closed := func(secs int64) *domain.TimeEntry {
		end := start.Add(time.Duration(secs) * time.Second)
		return &domain.TimeEntry{TaskID: "t1", StartTime: start, EndTime: &end, Duration: &secs}
	}

	tests := []struct {
		name    string
		entries []*domain.TimeEntry
		want    int
	}{
		{name: "половина оценки", entries: []*domain.TimeEntry{closed(1800), closed(1800)}, want: 50},
		{name: "перерасход не обрезается", entries: []*domain.TimeEntry{closed(8400)}, want: 117},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos, _ := newTaskService(t)

			repos.Tasks.On("GetByID", mock.Anything, "t1").
				Return(&domain.Task{ID: "t1", UserID: "u1", EstimatedMinutes: intPtr(120)}, nil)
			repos.TimeEntries.On("ListByTask", mock.Anything, "t1").Return(tt.entries, nil)

			progress, err := svc.Progress(t.Context(), domain.Session{UserID: "u1"}, "t1")

			require.NoError(t, err)
			assert.Equal(t, tt.want, progress.Percent)
		})
	}
}
