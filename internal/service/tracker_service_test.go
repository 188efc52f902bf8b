package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/mocks"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var trackerNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type stubView struct {
	view reconciler.View
	ok   bool
}

func (v *stubView) Snapshot(userID string) (reconciler.View, bool) {
	return v.view, v.ok
}

func newTracker(t *testing.T, view ActiveView) (TrackerService, *mocks.Repos, *mocks.MockTransactor) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repos := mocks.NewRepos()
	tx := mocks.NewMockTransactor(repos)
	svc := NewTrackerService(repos.Repositories(), tx, view, logger, func() time.Time { return trackerNow })
	return svc, repos, tx
}

func openTask(id, userID string) *domain.Task {
	return &domain.Task{ID: id, Title: "Task " + id, ProjectID: "p1", UserID: userID, Status: domain.TaskStatusInProgress}
}

func activeEntry(id, taskID, userID string, start time.Time) *domain.TimeEntry {
	return &domain.TimeEntry{ID: id, TaskID: taskID, UserID: userID, StartTime: start, CreatedAt: start}
}

// expectCreate назначает ID создаваемой записи, как это делает репозиторий
func expectCreate(repos *mocks.Repos, id string) {
	repos.TimeEntries.On("Create", mock.Anything, mock.AnythingOfType("*domain.TimeEntry")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.TimeEntry).ID = id
		}).
		Return(nil).Once()
}

func TestTrackerService_Start(t *testing.T) {
	sess := domain.Session{UserID: "u1"}

	t.Run("старт без активной записи", func(t *testing.T) {
		svc, repos, tx := newTracker(t, nil)

		repos.Tasks.On("GetByID", mock.Anything, "T1").Return(openTask("T1", "u1"), nil)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u1").Return([]*domain.TimeEntry{}, nil).Once()
		expectCreate(repos, "E1")

		entry, err := svc.Start(t.Context(), sess, "T1", nil)

		require.NoError(t, err)
		assert.Equal(t, "E1", entry.ID)
		assert.True(t, entry.IsActive())
		assert.Equal(t, trackerNow, entry.StartTime)
		assert.Equal(t, 1, tx.Commits())

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, "E1", active.ID, "активная запись берется из указателя без обращения к хранилищу")
		repos.AssertExpectations(t)
	})

	t.Run("T1 -> T2: предыдущая запись останавливается с вычисленной длительностью", func(t *testing.T) {
		svc, repos, tx := newTracker(t, nil)

		e1 := activeEntry("E1", "T1", "u1", trackerNow.Add(-25*time.Minute))
		repos.Tasks.On("GetByID", mock.Anything, "T2").Return(openTask("T2", "u1"), nil)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u1").Return([]*domain.TimeEntry{e1}, nil).Once()
		repos.TimeEntries.On("Close", mock.Anything, "E1", trackerNow, int64(1500)).Return(nil).Once()
		expectCreate(repos, "E2")

		entry, err := svc.Start(t.Context(), sess, "T2", nil)

		require.NoError(t, err)
		assert.Equal(t, "E2", entry.ID)
		assert.Equal(t, "T2", entry.TaskID)
		assert.Equal(t, 1, tx.Commits(), "остановка и создание выполняются в одной транзакции")

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Equal(t, "E2", active.ID, "активна ровно одна запись")
		repos.AssertExpectations(t)
	})

	t.Run("завершенная задача отклоняется до записи", func(t *testing.T) {
		svc, repos, tx := newTracker(t, nil)

		task := openTask("T1", "u1")
		task.Status = domain.TaskStatusCompleted
		repos.Tasks.On("GetByID", mock.Anything, "T1").Return(task, nil).Once()

		entry, err := svc.Start(t.Context(), sess, "T1", nil)

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, domain.ErrInvalidTask)
		assert.Equal(t, 0, tx.Commits()+tx.Rollbacks(), "транзакция не открывается")
		repos.AssertExpectations(t)
	})

	t.Run("несуществующая задача", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Tasks.On("GetByID", mock.Anything, "missing").
			Return(nil, domain.NewNotFoundError("task with id missing")).Once()

		_, err := svc.Start(t.Context(), sess, "missing", nil)

		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})

	t.Run("задача чужого приватного проекта", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Tasks.On("GetByID", mock.Anything, "T9").Return(openTask("T9", "u2"), nil).Once()
		repos.Projects.On("GetByID", mock.Anything, "p1").
			Return(&domain.Project{ID: "p1", UserID: "u2", IsShared: false}, nil).Once()

		_, err := svc.Start(t.Context(), sess, "T9", nil)

		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})

	t.Run("ошибка хранилища пробрасывается без изменений и сбрасывает указатель", func(t *testing.T) {
		view := &stubView{}
		svc, repos, tx := newTracker(t, view)
		svc.ObserveActive("u1", activeEntry("E0", "T1", "u1", trackerNow.Add(-time.Hour)))

		dbErr := domain.NewPersistenceError("create time entry", errors.New("connection reset"))
		repos.Tasks.On("GetByID", mock.Anything, "T1").Return(openTask("T1", "u1"), nil)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u1").Return([]*domain.TimeEntry{}, nil).Once()
		repos.TimeEntries.On("Create", mock.Anything, mock.Anything).Return(dbErr).Once()

		_, err := svc.Start(t.Context(), sess, "T1", nil)

		assert.Same(t, dbErr, err)
		assert.Equal(t, 1, tx.Rollbacks())

		// указатель сброшен: чтение идет в хранилище
		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u1").Return([]*domain.TimeEntry{}, nil).Once()
		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Nil(t, active)
		repos.AssertExpectations(t)
	})

	t.Run("без сессии", func(t *testing.T) {
		svc, _, _ := newTracker(t, nil)

		_, err := svc.Start(t.Context(), domain.Session{}, "T1", nil)

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestTrackerService_Stop(t *testing.T) {
	sess := domain.Session{UserID: "u1"}

	t.Run("остановка активной записи", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		start := trackerNow.Add(-90*time.Second - 700*time.Millisecond)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(activeEntry("E1", "T1", "u1", start), nil).Once()
		repos.TimeEntries.On("Close", mock.Anything, "E1", trackerNow, int64(90)).Return(nil).Once()

		entry, err := svc.Stop(t.Context(), sess, "E1")

		require.NoError(t, err)
		require.NotNil(t, entry.Duration)
		assert.Equal(t, int64(90), *entry.Duration, "длительность округляется вниз до секунд")
		assert.Equal(t, trackerNow, *entry.EndTime)

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Nil(t, active)
		repos.AssertExpectations(t)
	})

	t.Run("повторная остановка возвращает NOT_ACTIVE", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		start := trackerNow.Add(-time.Hour)
		stopped := activeEntry("E1", "T1", "u1", start)
		end := trackerNow.Add(-time.Minute)
		d := int64(3540)
		stopped.EndTime = &end
		stopped.Duration = &d

		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil)
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(activeEntry("E1", "T1", "u1", start), nil).Once()
		repos.TimeEntries.On("Close", mock.Anything, "E1", trackerNow, int64(3600)).Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(stopped, nil).Once()

		_, err := svc.Stop(t.Context(), sess, "E1")
		require.NoError(t, err)

		_, err = svc.Stop(t.Context(), sess, "E1")

		assert.ErrorIs(t, err, domain.ErrNotActive)
		repos.TimeEntries.AssertNumberOfCalls(t, "Close", 1)
	})

	t.Run("гонка: запись закрыта другим клиентом", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").
			Return(activeEntry("E1", "T1", "u1", trackerNow.Add(-time.Minute)), nil).Once()
		repos.TimeEntries.On("Close", mock.Anything, "E1", trackerNow, int64(60)).
			Return(domain.NewNotActiveError("E1")).Once()

		_, err := svc.Stop(t.Context(), sess, "E1")

		assert.ErrorIs(t, err, domain.ErrNotActive)
	})

	t.Run("чужая запись", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E7").
			Return(activeEntry("E7", "T1", "u2", trackerNow.Add(-time.Minute)), nil).Once()

		_, err := svc.Stop(t.Context(), sess, "E7")

		assert.ErrorIs(t, err, domain.ErrNotActive)
		repos.TimeEntries.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("несуществующая запись", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "nope").
			Return(nil, domain.NewNotFoundError("time entry with id nope")).Once()

		_, err := svc.Stop(t.Context(), sess, "nope")

		assert.ErrorIs(t, err, domain.ErrNotActive)
	})

	t.Run("отмена ctx сбрасывает указатель", func(t *testing.T) {
		view := &stubView{ok: true, view: reconciler.View{EntriesLoaded: true}}
		svc, _, _ := newTracker(t, view)
		svc.ObserveActive("u1", activeEntry("E1", "T1", "u1", trackerNow.Add(-time.Minute)))

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := svc.Stop(ctx, sess, "E1")
		require.ErrorIs(t, err, context.Canceled)

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Nil(t, active, "после отмены активная запись берется из представления реконсилера")
	})
}

func TestTrackerService_Complete(t *testing.T) {
	sess := domain.Session{UserID: "u1"}

	t.Run("остановка активных записей и завершение задачи", func(t *testing.T) {
		svc, repos, tx := newTracker(t, nil)
		svc.ObserveActive("u1", activeEntry("E1", "T1", "u1", trackerNow.Add(-10*time.Minute)))
		svc.ObserveActive("u2", activeEntry("E2", "T1", "u2", trackerNow.Add(-5*time.Minute)))

		repos.Tasks.On("GetByID", mock.Anything, "T1").Return(openTask("T1", "u1"), nil).Once()
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("ListActiveByTask", mock.Anything, "T1").Return([]*domain.TimeEntry{
			activeEntry("E1", "T1", "u1", trackerNow.Add(-10*time.Minute)),
			activeEntry("E2", "T1", "u2", trackerNow.Add(-5*time.Minute)),
		}, nil).Once()
		closeCall := repos.TimeEntries.On("Close", mock.Anything, "E1", trackerNow, int64(600)).Return(nil).Once()
		repos.TimeEntries.On("Close", mock.Anything, "E2", trackerNow, int64(300)).Return(nil).Once()
		repos.Tasks.On("UpdateStatus", mock.Anything, "T1", domain.TaskStatusCompleted).
			Return(nil).Once().NotBefore(closeCall)

		task, err := svc.Complete(t.Context(), sess, "T1")

		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
		assert.Equal(t, 1, tx.Commits())

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Nil(t, active, "после завершения не остается активной записи")

		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u2").Return([]*domain.TimeEntry{}, nil).Once()
		other, err := svc.ActiveEntry(t.Context(), domain.Session{UserID: "u2"})
		require.NoError(t, err)
		assert.Nil(t, other, "указатель другого пользователя сброшен и перечитан")
		repos.AssertExpectations(t)
	})

	t.Run("ошибка при смене статуса откатывает остановку", func(t *testing.T) {
		svc, repos, tx := newTracker(t, nil)

		dbErr := domain.NewPersistenceError("update task status", errors.New("timeout"))
		repos.Tasks.On("GetByID", mock.Anything, "T1").Return(openTask("T1", "u1"), nil).Once()
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("ListActiveByTask", mock.Anything, "T1").Return([]*domain.TimeEntry{}, nil).Once()
		repos.Tasks.On("UpdateStatus", mock.Anything, "T1", domain.TaskStatusCompleted).Return(dbErr).Once()

		_, err := svc.Complete(t.Context(), sess, "T1")

		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.Equal(t, 1, tx.Rollbacks())
	})

	t.Run("чужая задача", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Tasks.On("GetByID", mock.Anything, "T1").Return(openTask("T1", "u2"), nil).Once()

		_, err := svc.Complete(t.Context(), sess, "T1")

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("несуществующая задача", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.Tasks.On("GetByID", mock.Anything, "T404").Return(nil, domain.NewNotFoundError("task")).Once()

		_, err := svc.Complete(t.Context(), sess, "T404")

		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})
}

func TestTrackerService_ActiveEntry(t *testing.T) {
	sess := domain.Session{UserID: "u1"}

	t.Run("из представления реконсилера", func(t *testing.T) {
		view := &stubView{ok: true, view: reconciler.View{
			EntriesLoaded: true,
			Active:        activeEntry("E5", "T1", "u1", trackerNow),
		}}
		svc, repos, _ := newTracker(t, view)

		active, err := svc.ActiveEntry(t.Context(), sess)

		require.NoError(t, err)
		assert.Equal(t, "E5", active.ID)
		repos.AssertExpectations(t)
	})

	t.Run("из хранилища при нескольких активных берется последняя", func(t *testing.T) {
		svc, repos, _ := newTracker(t, &stubView{})

		repos.TimeEntries.On("ListActiveByUser", mock.Anything, "u1").Return([]*domain.TimeEntry{
			activeEntry("old", "T1", "u1", trackerNow.Add(-2*time.Hour)),
			activeEntry("new", "T2", "u1", trackerNow.Add(-time.Hour)),
		}, nil).Once()

		active, err := svc.ActiveEntry(t.Context(), sess)

		require.NoError(t, err)
		assert.Equal(t, "new", active.ID)
	})

	t.Run("наблюдатель обновляет указатель", func(t *testing.T) {
		svc, _, _ := newTracker(t, nil)

		svc.ObserveActive("u1", activeEntry("E9", "T1", "u1", trackerNow))

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Equal(t, "E9", active.ID)
	})
}

func TestTrackerService_TotalInRange(t *testing.T) {
	sess := domain.Session{UserID: "u1"}
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	t.Run("сумма закрытых записей", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		d1, d2 := int64(1800), int64(600)
		end := from.Add(2 * time.Hour)
		e1 := activeEntry("E1", "T1", "u1", from.Add(time.Hour))
		e1.EndTime, e1.Duration = &end, &d1
		e2 := activeEntry("E2", "T1", "u1", from.Add(3*time.Hour))
		e2.EndTime, e2.Duration = &end, &d2
		e3 := activeEntry("E3", "T1", "u1", from.Add(4*time.Hour))

		repos.TimeEntries.On("ListByUser", mock.Anything, "u1", domain.EntryFilter{From: &from, To: &to}).
			Return([]*domain.TimeEntry{e1, e2, e3}, nil).Once()

		total, err := svc.TotalInRange(t.Context(), sess, from, to)

		require.NoError(t, err)
		assert.Equal(t, int64(2400), total, "активная запись не учитывается")
	})

	t.Run("конец диапазона раньше начала", func(t *testing.T) {
		svc, _, _ := newTracker(t, nil)

		_, err := svc.TotalInRange(t.Context(), sess, to, from)

		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})
}

func TestTrackerService_UpdateEntry(t *testing.T) {
	sess := domain.Session{UserID: "u1"}
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	closedEntry := func() *domain.TimeEntry {
		e := activeEntry("E1", "T1", "u1", start)
		end := start.Add(time.Hour)
		d := int64(3600)
		e.EndTime, e.Duration = &end, &d
		return e
	}

	t.Run("изменение начала пересчитывает длительность", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		newStart := start.Add(30 * time.Minute)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(closedEntry(), nil).Once()
		repos.TimeEntries.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.TimeEntry) bool {
			return e.StartTime.Equal(newStart) && *e.Duration == 1800
		})).Return(nil).Once()

		entry, err := svc.UpdateEntry(t.Context(), sess, "E1", domain.TimeEntryPatch{StartTime: &newStart})

		require.NoError(t, err)
		assert.Equal(t, int64(1800), *entry.Duration)
		repos.AssertExpectations(t)
	})

	t.Run("время окончания раньше начала", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		badEnd := start.Add(-time.Minute)
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(closedEntry(), nil).Once()

		_, err := svc.UpdateEntry(t.Context(), sess, "E1", domain.TimeEntryPatch{EndTime: &badEnd})

		assert.ErrorIs(t, err, domain.ErrInvalidRange)
		repos.TimeEntries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("активную запись нельзя закрыть редактированием", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		end := trackerNow
		repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
		repos.TimeEntries.On("GetByID", mock.Anything, "E1").
			Return(activeEntry("E1", "T1", "u1", start), nil).Once()

		_, err := svc.UpdateEntry(t.Context(), sess, "E1", domain.TimeEntryPatch{EndTime: &end})

		assert.ErrorIs(t, err, domain.ErrEntryActive)
	})

	t.Run("перенос на недоступную задачу", func(t *testing.T) {
		completed := openTask("T2", "u1")
		completed.Status = domain.TaskStatusCompleted
		foreign := openTask("T3", "u2")
		foreign.ProjectID = "p2"

		tests := []struct {
			name   string
			taskID string
			setup  func(repos *mocks.Repos)
		}{
			{
				name:   "завершенная задача",
				taskID: "T2",
				setup: func(repos *mocks.Repos) {
					repos.Tasks.On("GetByID", mock.Anything, "T2").Return(completed, nil).Once()
				},
			},
			{
				name:   "задача чужого приватного проекта",
				taskID: "T3",
				setup: func(repos *mocks.Repos) {
					repos.Tasks.On("GetByID", mock.Anything, "T3").Return(foreign, nil).Once()
					repos.Projects.On("GetByID", mock.Anything, "p2").Return(&domain.Project{ID: "p2", UserID: "u2"}, nil).Once()
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, repos, tx := newTracker(t, nil)

				repos.Users.On("LockForUpdate", mock.Anything, "u1").Return(nil).Once()
				repos.TimeEntries.On("GetByID", mock.Anything, "E1").
					Return(activeEntry("E1", "T1", "u1", start), nil).Once()
				tt.setup(repos)

				_, err := svc.UpdateEntry(t.Context(), sess, "E1", domain.TimeEntryPatch{TaskID: &tt.taskID})

				assert.ErrorIs(t, err, domain.ErrInvalidTask)
				assert.Equal(t, 1, tx.Rollbacks())
				repos.TimeEntries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("конец и длительность одновременно", func(t *testing.T) {
		svc, _, _ := newTracker(t, nil)

		end := trackerNow
		d := int64(60)
		_, err := svc.UpdateEntry(t.Context(), sess, "E1", domain.TimeEntryPatch{EndTime: &end, Duration: &d})

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	})
}

func TestApplyEntryPatch(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	d := int64(3600)
	closed := &domain.TimeEntry{ID: "E1", StartTime: start, EndTime: &end, Duration: &d}

	t.Run("длительность сдвигает время окончания", func(t *testing.T) {
		newDuration := int64(5400)

		updated, err := applyEntryPatch(closed, domain.TimeEntryPatch{Duration: &newDuration}, trackerNow)

		require.NoError(t, err)
		assert.Equal(t, start.Add(90*time.Minute), *updated.EndTime)
		assert.Equal(t, int64(5400), *updated.Duration)
		assert.Equal(t, end, *closed.EndTime, "исходная запись не меняется")
	})

	t.Run("пустые заметки очищаются", func(t *testing.T) {
		empty := ""

		updated, err := applyEntryPatch(closed, domain.TimeEntryPatch{Notes: &empty}, trackerNow)

		require.NoError(t, err)
		assert.Nil(t, updated.Notes)
	})

	t.Run("начало активной записи в будущем", func(t *testing.T) {
		active := &domain.TimeEntry{ID: "E2", StartTime: start}
		future := trackerNow.Add(time.Hour)

		_, err := applyEntryPatch(active, domain.TimeEntryPatch{StartTime: &future}, trackerNow)

		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})
}

func TestTrackerService_DeleteEntry(t *testing.T) {
	sess := domain.Session{UserID: "u1"}

	t.Run("удаление активной записи", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)
		svc.ObserveActive("u1", activeEntry("E1", "T1", "u1", trackerNow))

		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(activeEntry("E1", "T1", "u1", trackerNow), nil).Once()
		repos.TimeEntries.On("Delete", mock.Anything, "E1").Return(nil).Once()

		require.NoError(t, svc.DeleteEntry(t.Context(), sess, "E1"))

		active, err := svc.ActiveEntry(t.Context(), sess)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("чужая запись", func(t *testing.T) {
		svc, repos, _ := newTracker(t, nil)

		repos.TimeEntries.On("GetByID", mock.Anything, "E1").Return(activeEntry("E1", "T1", "u2", trackerNow), nil).Once()

		err := svc.DeleteEntry(t.Context(), sess, "E1")

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestUserLocks(t *testing.T) {
	t.Run("операции одного пользователя сериализуются", func(t *testing.T) {
		locks := newUserLocks()

		unlock, err := locks.acquire(t.Context(), "u1")
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			unlock2, err := locks.acquire(context.Background(), "u1")
			if err == nil {
				close(acquired)
				unlock2()
			}
		}()

		select {
		case <-acquired:
			t.Fatal("второй захват не должен пройти до освобождения")
		case <-time.After(50 * time.Millisecond):
		}

		unlock()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("второй захват не выполнен после освобождения")
		}
		assert.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("разные пользователи не блокируют друг друга", func(t *testing.T) {
		locks := newUserLocks()

		var wg sync.WaitGroup
		for _, userID := range []string{"u1", "u2", "u3"} {
			unlock, err := locks.acquire(t.Context(), userID)
			require.NoError(t, err)
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, 0, locks.size())
	})

	t.Run("ожидание прерывается отменой ctx", func(t *testing.T) {
		locks := newUserLocks()

		unlock, err := locks.acquire(t.Context(), "u1")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, err = locks.acquire(ctx, "u1")

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
