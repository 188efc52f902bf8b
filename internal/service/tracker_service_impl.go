package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/duration"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type trackerService struct {
	repos repository.Repositories
	tx    repository.Transactor
	view  ActiveView
	log   logrus.FieldLogger
	now   func() time.Time
	locks *userLocks

	// active - предполагаемая активная запись по пользователю;
	// nil-значение означает "активной записи нет", отсутствие ключа - "неизвестно"
	mu     sync.RWMutex
	active map[string]*domain.TimeEntry
}

// NewTrackerService создает сервис учета времени.
// view может быть nil, тогда ActiveEntry читает хранилище напрямую.
func NewTrackerService(
	repos repository.Repositories,
	tx repository.Transactor,
	view ActiveView,
	log logrus.FieldLogger,
	clock func() time.Time,
) TrackerService {
	if clock == nil {
		clock = time.Now
	}
	return &trackerService{
		repos:  repos,
		tx:     tx,
		view:   view,
		log:    log,
		now:    clock,
		locks:  newUserLocks(),
		active: make(map[string]*domain.TimeEntry),
	}
}

func (s *trackerService) Start(ctx context.Context, sess domain.Session, taskID string, notes *string) (entry *domain.TimeEntry, err error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	unlock, err := s.locks.acquire(ctx, sess.UserID)
	if err != nil {
		s.invalidate(sess.UserID)
		return nil, err
	}
	defer unlock()
	defer s.invalidateOnError(sess.UserID, &err)

	if _, err := s.eligibleTask(ctx, s.repos, sess, taskID); err != nil {
		return nil, err
	}

	var stopped []*domain.TimeEntry
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.LockForUpdate(ctx, sess.UserID); err != nil {
			return err
		}
		// повторная проверка под блокировкой: задачу могли завершить параллельно
		if _, err := s.eligibleTask(ctx, repos, sess, taskID); err != nil {
			return err
		}

		now := s.now()
		active, err := repos.TimeEntries.ListActiveByUser(ctx, sess.UserID)
		if err != nil {
			return err
		}
		for _, a := range active {
			closed, err := closeEntry(ctx, repos, a, now)
			if err != nil {
				return err
			}
			stopped = append(stopped, closed)
		}

		entry = &domain.TimeEntry{
			TaskID:    taskID,
			UserID:    sess.UserID,
			StartTime: now,
			Notes:     notes,
		}
		return repos.TimeEntries.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.setActive(sess.UserID, entry)

	log := s.log.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"entry_id": entry.ID,
		"task_id":  taskID,
	})
	for _, e := range stopped {
		log.WithField("stopped_entry_id", e.ID).Info("previous active entry stopped")
	}
	log.Info("time tracking started")

	return entry.Clone(), nil
}

func (s *trackerService) Stop(ctx context.Context, sess domain.Session, entryID string) (entry *domain.TimeEntry, err error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	unlock, err := s.locks.acquire(ctx, sess.UserID)
	if err != nil {
		s.invalidate(sess.UserID)
		return nil, err
	}
	defer unlock()
	defer s.invalidateOnError(sess.UserID, &err)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.LockForUpdate(ctx, sess.UserID); err != nil {
			return err
		}

		current, err := repos.TimeEntries.GetByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewNotActiveError(entryID)
			}
			return err
		}
		if current.UserID != sess.UserID || !current.IsActive() {
			return domain.NewNotActiveError(entryID)
		}

		entry, err = closeEntry(ctx, repos, current, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.setActive(sess.UserID, nil)
	s.log.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"entry_id": entry.ID,
		"duration": *entry.Duration,
	}).Info("time tracking stopped")

	return entry, nil
}

func (s *trackerService) Complete(ctx context.Context, sess domain.Session, taskID string) (task *domain.Task, err error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	unlock, err := s.locks.acquire(ctx, sess.UserID)
	if err != nil {
		s.invalidate(sess.UserID)
		return nil, err
	}
	defer unlock()
	defer s.invalidateOnError(sess.UserID, &err)

	task, err = s.repos.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewInvalidTaskError(taskID, "does not exist")
		}
		return nil, err
	}
	if task.UserID != sess.UserID {
		return nil, domain.ErrForbidden
	}

	var stopped []*domain.TimeEntry
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.LockForUpdate(ctx, sess.UserID); err != nil {
			return err
		}

		now := s.now()
		active, err := repos.TimeEntries.ListActiveByTask(ctx, taskID)
		if err != nil {
			return err
		}
		for _, a := range active {
			closed, err := closeEntry(ctx, repos, a, now)
			if errors.Is(err, domain.ErrNotActive) {
				// запись другого пользователя успели остановить
				continue
			}
			if err != nil {
				return err
			}
			stopped = append(stopped, closed)
		}

		return repos.Tasks.UpdateStatus(ctx, taskID, domain.TaskStatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	for _, e := range stopped {
		if e.UserID == sess.UserID {
			s.setActive(e.UserID, nil)
		} else {
			s.invalidate(e.UserID)
		}
	}

	task.Status = domain.TaskStatusCompleted
	s.log.WithFields(logrus.Fields{
		"user_id": sess.UserID,
		"task_id": taskID,
		"stopped": len(stopped),
	}).Info("task completed")

	return task, nil
}

func (s *trackerService) ActiveEntry(ctx context.Context, sess domain.Session) (*domain.TimeEntry, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	if entry, ok := s.pointer(sess.UserID); ok {
		return entry.Clone(), nil
	}

	if s.view != nil {
		if view, ok := s.view.Snapshot(sess.UserID); ok && view.EntriesLoaded {
			return view.Active, nil
		}
	}

	active, err := s.repos.TimeEntries.ListActiveByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	entry, anomalies := reconciler.DeriveActive(active)
	if len(anomalies) > 0 {
		s.log.WithField("user_id", sess.UserID).
			WithError(domain.NewAnomalyError(sess.UserID, entryIDs(anomalies))).
			Warn("multiple active time entries in store")
	}
	return entry.Clone(), nil
}

func (s *trackerService) TotalInRange(ctx context.Context, sess domain.Session, from, to time.Time) (int64, error) {
	if sess.UserID == "" {
		return 0, domain.ErrUnauthorized
	}
	if to.Before(from) {
		return 0, domain.ErrInvalidRange
	}

	entries, err := s.repos.TimeEntries.ListByUser(ctx, sess.UserID, domain.EntryFilter{From: &from, To: &to})
	if err != nil {
		return 0, err
	}
	return duration.TotalSeconds(entries), nil
}

func (s *trackerService) UpdateEntry(ctx context.Context, sess domain.Session, entryID string, patch domain.TimeEntryPatch) (entry *domain.TimeEntry, err error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if patch.EndTime != nil && patch.Duration != nil {
		return nil, domain.NewInvalidInputError("set either end_time or duration, not both")
	}
	if patch.Duration != nil && *patch.Duration < 0 {
		return nil, domain.ErrInvalidRange
	}

	unlock, err := s.locks.acquire(ctx, sess.UserID)
	if err != nil {
		s.invalidate(sess.UserID)
		return nil, err
	}
	defer unlock()
	defer s.invalidateOnError(sess.UserID, &err)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.LockForUpdate(ctx, sess.UserID); err != nil {
			return err
		}

		current, err := repos.TimeEntries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if current.UserID != sess.UserID {
			return domain.ErrForbidden
		}

		if patch.TaskID != nil && *patch.TaskID != current.TaskID {
			if _, err := s.eligibleTask(ctx, repos, sess, *patch.TaskID); err != nil {
				return err
			}
		}

		entry, err = applyEntryPatch(current, patch, s.now())
		if err != nil {
			return err
		}
		return repos.TimeEntries.Update(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if entry.IsActive() {
		s.setActive(sess.UserID, entry)
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"entry_id": entryID,
	}).Info("time entry updated")

	return entry.Clone(), nil
}

func (s *trackerService) DeleteEntry(ctx context.Context, sess domain.Session, entryID string) (err error) {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}

	unlock, err := s.locks.acquire(ctx, sess.UserID)
	if err != nil {
		s.invalidate(sess.UserID)
		return err
	}
	defer unlock()
	defer s.invalidateOnError(sess.UserID, &err)

	var wasActive bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.TimeEntries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if current.UserID != sess.UserID {
			return domain.ErrForbidden
		}
		wasActive = current.IsActive()
		return repos.TimeEntries.Delete(ctx, entryID)
	})
	if err != nil {
		return err
	}

	if wasActive {
		s.setActive(sess.UserID, nil)
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"entry_id": entryID,
	}).Info("time entry deleted")

	return nil
}

func (s *trackerService) ListEntries(ctx context.Context, sess domain.Session, filter domain.EntryFilter) ([]*domain.TimeEntry, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidRange
	}
	return s.repos.TimeEntries.ListByUser(ctx, sess.UserID, filter)
}

// ObserveActive принимает активную запись, выведенную реконсилером после перечитывания
func (s *trackerService) ObserveActive(userID string, entry *domain.TimeEntry) {
	s.setActive(userID, entry)
}

func (s *trackerService) Invalidate(userID string) {
	s.invalidate(userID)
}

// eligibleTask проверяет, что задача существует, доступна пользователю и не завершена
func (s *trackerService) eligibleTask(ctx context.Context, repos repository.Repositories, sess domain.Session, taskID string) (*domain.Task, error) {
	if taskID == "" {
		return nil, domain.NewInvalidTaskError(taskID, "is not specified")
	}

	task, err := repos.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewInvalidTaskError(taskID, "does not exist")
		}
		return nil, err
	}
	if task.Status == domain.TaskStatusCompleted {
		return nil, domain.NewInvalidTaskError(taskID, "is already completed")
	}

	if task.UserID != sess.UserID {
		project, err := repos.Projects.GetByID(ctx, task.ProjectID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewInvalidTaskError(taskID, "belongs to a deleted project")
			}
			return nil, err
		}
		if !project.VisibleTo(sess.UserID) {
			return nil, domain.NewInvalidTaskError(taskID, "is not accessible")
		}
	}

	return task, nil
}

// closeEntry закрывает активную запись одним UPDATE и возвращает ее закрытую копию
func closeEntry(ctx context.Context, repos repository.Repositories, entry *domain.TimeEntry, now time.Time) (*domain.TimeEntry, error) {
	seconds, err := duration.Elapsed(entry.StartTime, now)
	if err != nil {
		return nil, err
	}
	if err := repos.TimeEntries.Close(ctx, entry.ID, now, seconds); err != nil {
		return nil, err
	}

	closed := entry.Clone()
	closed.EndTime = &now
	closed.Duration = &seconds
	return closed, nil
}

// applyEntryPatch применяет ручное редактирование: источником истины служат временные метки,
// duration пересчитывается из них; активную запись закрывает только Stop
func applyEntryPatch(current *domain.TimeEntry, patch domain.TimeEntryPatch, now time.Time) (*domain.TimeEntry, error) {
	updated := current.Clone()

	if patch.TaskID != nil {
		updated.TaskID = *patch.TaskID
	}
	if patch.Notes != nil {
		updated.Notes = patch.Notes
		if *patch.Notes == "" {
			updated.Notes = nil
		}
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}

	if updated.IsActive() {
		if patch.EndTime != nil || patch.Duration != nil {
			return nil, domain.ErrEntryActive
		}
		if updated.StartTime.After(now) {
			return nil, domain.ErrInvalidRange
		}
		return updated, nil
	}

	switch {
	case patch.EndTime != nil:
		end := *patch.EndTime
		updated.EndTime = &end
	case patch.Duration != nil:
		end := updated.StartTime.Add(time.Duration(*patch.Duration) * time.Second)
		updated.EndTime = &end
	}

	seconds, err := duration.Elapsed(updated.StartTime, *updated.EndTime)
	if err != nil {
		return nil, err
	}
	updated.Duration = &seconds
	return updated, nil
}

func (s *trackerService) pointer(userID string) (*domain.TimeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.active[userID]
	return entry, ok
}

func (s *trackerService) setActive(userID string, entry *domain.TimeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID] = entry.Clone()
}

func (s *trackerService) invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, userID)
}

func (s *trackerService) invalidateOnError(userID string, err *error) {
	if *err != nil {
		s.invalidate(userID)
	}
}

func entryIDs(entries []*domain.TimeEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
