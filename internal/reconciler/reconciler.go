// Package reconciler поддерживает локальное представление данных пользователя
// в согласии с хранилищем: подписывается на изменения и перечитывает коллекции целиком.
package reconciler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ActiveObserver получает активную запись после каждого перечитывания time_entries
type ActiveObserver interface {
	ObserveActive(userID string, entry *domain.TimeEntry)
}

// View - снимок данных пользователя
type View struct {
	Projects      []*domain.Project
	Tasks         []*domain.Task
	Entries       []*domain.TimeEntry
	Notifications []*domain.Notification
	Active        *domain.TimeEntry
	// Anomalies - лишние активные записи, от новых к старым
	Anomalies []*domain.TimeEntry
	// EntriesLoaded - записи загружены хотя бы один раз, Active достоверен
	EntriesLoaded bool
	Version       uint64
	RefreshedAt   time.Time
}

func (v View) clone() View {
	c := v
	c.Projects = append([]*domain.Project(nil), v.Projects...)
	c.Tasks = append([]*domain.Task(nil), v.Tasks...)
	c.Notifications = append([]*domain.Notification(nil), v.Notifications...)
	c.Entries = cloneEntries(v.Entries)
	c.Anomalies = cloneEntries(v.Anomalies)
	c.Active = v.Active.Clone()
	return c
}

func cloneEntries(entries []*domain.TimeEntry) []*domain.TimeEntry {
	if entries == nil {
		return nil
	}
	out := make([]*domain.TimeEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

type Options struct {
	// BreakerTimeout - время в открытом состоянии до пробного запроса
	BreakerTimeout time.Duration
	Clock          func() time.Time
}

type session struct {
	userID string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	view    View
	started map[repository.Collection]uint64
	applied map[repository.Collection]uint64
}

type Reconciler struct {
	repos   repository.Repositories
	feed    repository.ChangeFeed
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group
	log     logrus.FieldLogger
	now     func() time.Time

	observerMu sync.RWMutex
	observer   ActiveObserver

	mu       sync.Mutex
	sessions map[string]*session
}

// New создает реконсилер поверх репозиториев и ленты изменений
func New(repos repository.Repositories, feed repository.ChangeFeed, log logrus.FieldLogger, opts Options) *Reconciler {
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Reconciler{
		repos:    repos,
		feed:     feed,
		breaker:  newBreaker(opts.BreakerTimeout, log),
		log:      log,
		now:      opts.Clock,
		sessions: make(map[string]*session),
	}
}

func newBreaker(timeout time.Duration, log logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "reconciler-refetch",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// SetObserver задает получателя активной записи
func (r *Reconciler) SetObserver(o ActiveObserver) {
	r.observerMu.Lock()
	defer r.observerMu.Unlock()
	r.observer = o
}

// Open открывает по одной подписке на каждую коллекцию пользователя и выполняет начальную загрузку.
// Повторное открытие уже открытой сессии ничего не делает.
func (r *Reconciler) Open(ctx context.Context, sess domain.Session) error {
	if sess.UserID == "" {
		return domain.ErrUnauthorized
	}

	r.mu.Lock()
	if _, ok := r.sessions[sess.UserID]; ok {
		r.mu.Unlock()
		return nil
	}
	// подписки живут до Close, а не до конца запроса
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{
		userID:  sess.UserID,
		cancel:  cancel,
		started: make(map[repository.Collection]uint64),
		applied: make(map[repository.Collection]uint64),
	}
	r.sessions[sess.UserID] = s
	r.mu.Unlock()

	log := r.log.WithField("user_id", sess.UserID)

	channels := make(map[repository.Collection]<-chan repository.Change, len(repository.Collections))
	for _, c := range repository.Collections {
		ch, err := r.feed.Subscribe(sctx, sess.UserID, c)
		if err != nil {
			r.abort(s)
			log.WithError(err).WithField("collection", c).Error("failed to subscribe")
			return err
		}
		channels[c] = ch
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range repository.Collections {
		g.Go(func() error {
			return r.refresh(gctx, s, c, false)
		})
	}
	if err := g.Wait(); err != nil {
		r.abort(s)
		log.WithError(err).Error("initial fetch failed")
		return err
	}

	r.mu.Lock()
	if r.sessions[sess.UserID] != s {
		r.mu.Unlock()
		cancel()
		return context.Canceled
	}
	for c, ch := range channels {
		s.wg.Add(1)
		go r.watch(sctx, s, c, ch)
	}
	r.mu.Unlock()

	log.Info("reconciler session opened")
	return nil
}

func (r *Reconciler) abort(s *session) {
	r.mu.Lock()
	if r.sessions[s.userID] == s {
		delete(r.sessions, s.userID)
	}
	r.mu.Unlock()
	s.cancel()
}

// Close отменяет все подписки пользователя и дожидается их завершения
func (r *Reconciler) Close(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	s.cancel()
	s.wg.Wait()
	r.log.WithField("user_id", userID).Info("reconciler session closed")
}

// Shutdown закрывает все открытые сессии
func (r *Reconciler) Shutdown() {
	r.mu.Lock()
	userIDs := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		userIDs = append(userIDs, userID)
	}
	r.mu.Unlock()

	for _, userID := range userIDs {
		r.Close(userID)
	}
}

// IsOpen сообщает, открыта ли сессия пользователя
func (r *Reconciler) IsOpen(userID string) bool {
	_, ok := r.session(userID)
	return ok
}

func (r *Reconciler) session(userID string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Refresh перечитывает коллекцию; одновременные вызовы для одной коллекции объединяются
func (r *Reconciler) Refresh(ctx context.Context, userID string, collection repository.Collection) error {
	s, ok := r.session(userID)
	if !ok {
		return domain.NewNotFoundError("reconciler session for user " + userID)
	}
	return r.refresh(ctx, s, collection, false)
}

// Snapshot возвращает копию представления пользователя
func (r *Reconciler) Snapshot(userID string) (View, bool) {
	s, ok := r.session(userID)
	if !ok {
		return View{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.clone(), true
}

func (r *Reconciler) watch(ctx context.Context, s *session, collection repository.Collection, changes <-chan repository.Change) {
	defer s.wg.Done()

	log := r.log.WithFields(logrus.Fields{
		"user_id":    s.userID,
		"collection": collection,
	})

	for range changes {
		// уведомление пришло после commit, поэтому присоединяться к уже идущему чтению нельзя
		if err := r.refresh(ctx, s, collection, true); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("refetch after change failed")
		}
	}
}

func (r *Reconciler) refresh(ctx context.Context, s *session, collection repository.Collection, fresh bool) error {
	key := s.userID + "/" + string(collection)
	if fresh {
		r.group.Forget(key)
	}

	_, err, _ := r.group.Do(key, func() (any, error) {
		return nil, r.refetch(ctx, s, collection)
	})
	return err
}

func (r *Reconciler) refetch(ctx context.Context, s *session, collection repository.Collection) error {
	s.mu.Lock()
	s.started[collection]++
	seq := s.started[collection]
	s.mu.Unlock()

	data, err := r.breaker.Execute(func() (any, error) {
		return r.fetch(ctx, s.userID, collection)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.NewPersistenceError("refetch "+string(collection), err)
		}
		return err
	}

	r.apply(s, collection, seq, data)
	return nil
}

func (r *Reconciler) fetch(ctx context.Context, userID string, collection repository.Collection) (any, error) {
	switch collection {
	case repository.CollectionProjects:
		return r.repos.Projects.ListVisible(ctx, userID)
	case repository.CollectionTasks:
		return r.repos.Tasks.ListVisible(ctx, userID)
	case repository.CollectionTimeEntries:
		return r.repos.TimeEntries.ListByUser(ctx, userID, domain.EntryFilter{})
	case repository.CollectionNotifications:
		return r.repos.Notifications.ListByUser(ctx, userID)
	default:
		return nil, domain.NewInvalidInputError("unknown collection %q", collection)
	}
}

func (r *Reconciler) apply(s *session, collection repository.Collection, seq uint64, data any) {
	var active *domain.TimeEntry
	var anomalies []*domain.TimeEntry

	s.mu.Lock()
	// результат более раннего чтения не перезаписывает более позднее
	if seq <= s.applied[collection] {
		s.mu.Unlock()
		return
	}
	s.applied[collection] = seq

	switch collection {
	case repository.CollectionProjects:
		s.view.Projects = data.([]*domain.Project)
	case repository.CollectionTasks:
		s.view.Tasks = data.([]*domain.Task)
	case repository.CollectionTimeEntries:
		entries := data.([]*domain.TimeEntry)
		active, anomalies = DeriveActive(entries)
		s.view.Entries = entries
		s.view.Active = active
		s.view.Anomalies = anomalies
		s.view.EntriesLoaded = true

		// наблюдатель получает записи в том же порядке, в котором они применены
		r.observerMu.RLock()
		observer := r.observer
		r.observerMu.RUnlock()
		if observer != nil {
			observer.ObserveActive(s.userID, active.Clone())
		}
	case repository.CollectionNotifications:
		s.view.Notifications = data.([]*domain.Notification)
	}
	s.view.Version++
	s.view.RefreshedAt = r.now()
	s.mu.Unlock()

	if len(anomalies) > 0 {
		r.log.WithFields(logrus.Fields{
			"user_id":  s.userID,
			"entry_id": active.ID,
		}).WithError(domain.NewAnomalyError(s.userID, entryIDs(anomalies))).
			Warn("multiple active time entries, most recent kept as active")
	}
}
