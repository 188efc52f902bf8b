package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// JobFunc выполняется сразу при добавлении задания и затем на каждом тике
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	jobs   map[string]*job
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

type job struct {
	ticker *time.Ticker
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler создает планировщик периодических заданий
func NewScheduler(log logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Add запускает задание под ключом key, заменяя существующее
func (s *Scheduler) Add(key string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	if existing, ok := s.jobs[key]; ok {
		existing.stop()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	j := &job{
		ticker: time.NewTicker(interval),
		cancel: jobCancel,
		done:   make(chan struct{}),
	}
	s.jobs[key] = j

	go s.run(jobCtx, key, j, fn)

	s.log.WithFields(logrus.Fields{
		"job":      key,
		"interval": interval.String(),
	}).Debug("scheduled job added")
}

// Remove останавливает задание и дожидается завершения текущего запуска
func (s *Scheduler) Remove(key string) {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if ok {
		delete(s.jobs, key)
	}
	s.mu.Unlock()

	if ok {
		j.stop()
		<-j.done
		s.log.WithField("job", key).Debug("scheduled job removed")
	}
}

// Has сообщает, зарегистрировано ли задание
func (s *Scheduler) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[key]
	return ok
}

// Len возвращает число активных заданий
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Stop останавливает все задания
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for _, j := range jobs {
		j.stop()
		<-j.done
	}
	s.log.WithField("jobs", len(jobs)).Info("scheduler stopped")
}

func (j *job) stop() {
	j.ticker.Stop()
	j.cancel()
}

func (s *Scheduler) run(ctx context.Context, key string, j *job, fn JobFunc) {
	defer close(j.done)

	s.execute(ctx, key, fn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-j.ticker.C:
			s.execute(ctx, key, fn)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, key string, fn JobFunc) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		s.log.WithError(err).WithField("job", key).Warn("scheduled job failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"job":     key,
		"elapsed": time.Since(start).String(),
	}).Debug("scheduled job finished")
}
