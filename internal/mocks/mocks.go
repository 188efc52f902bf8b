package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) LockForUpdate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectRepository) ListVisible(ctx context.Context, userID string) ([]*domain.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ListVisible(ctx context.Context, userID string) ([]*domain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

type MockTimeEntryRepository struct {
	mock.Mock
}

func (m *MockTimeEntryRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) ListByUser(ctx context.Context, userID string, filter domain.EntryFilter) ([]*domain.TimeEntry, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.TimeEntry, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.TimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) ListActiveByTask(ctx context.Context, taskID string) ([]*domain.TimeEntry, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) Close(ctx context.Context, id string, endTime time.Time, duration int64) error {
	args := m.Called(ctx, id, endTime, duration)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) Update(ctx context.Context, entry *domain.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) DeleteByTaskID(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) Exists(ctx context.Context, userID string, category domain.NotificationCategory, relatedID string) (bool, error) {
	args := m.Called(ctx, userID, category, relatedID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// Repos - набор моков, собираемый в repository.Repositories
type Repos struct {
	Users         *MockUserRepository
	Projects      *MockProjectRepository
	Tasks         *MockTaskRepository
	TimeEntries   *MockTimeEntryRepository
	Notifications *MockNotificationRepository
}

func NewRepos() *Repos {
	return &Repos{
		Users:         new(MockUserRepository),
		Projects:      new(MockProjectRepository),
		Tasks:         new(MockTaskRepository),
		TimeEntries:   new(MockTimeEntryRepository),
		Notifications: new(MockNotificationRepository),
	}
}

func (r *Repos) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:         r.Users,
		Projects:      r.Projects,
		Tasks:         r.Tasks,
		TimeEntries:   r.TimeEntries,
		Notifications: r.Notifications,
	}
}

// AssertExpectations проверяет ожидания всех моков
func (r *Repos) AssertExpectations(t mock.TestingT) {
	r.Users.AssertExpectations(t)
	r.Projects.AssertExpectations(t)
	r.Tasks.AssertExpectations(t)
	r.TimeEntries.AssertExpectations(t)
	r.Notifications.AssertExpectations(t)
}

// MockTransactor выполняет fn поверх тех же моков и считает commit/rollback
type MockTransactor struct {
	Repos *Repos

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func NewMockTransactor(repos *Repos) *MockTransactor {
	return &MockTransactor{Repos: repos}
}

func (m *MockTransactor) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func (m *MockTransactor) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := fn(ctx, m.Repos.Repositories())

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

// FakeChangeFeed - управляемая из теста лента изменений; каналы закрываются при отмене ctx
type FakeChangeFeed struct {
	mu   sync.Mutex
	subs map[string][]chan repository.Change
	// Err, если задан, возвращается из Subscribe
	Err error
}

func NewFakeChangeFeed() *FakeChangeFeed {
	return &FakeChangeFeed{subs: make(map[string][]chan repository.Change)}
}

func feedKey(userID string, collection repository.Collection) string {
	return userID + "/" + string(collection)
}

func (f *FakeChangeFeed) Subscribe(ctx context.Context, userID string, collection repository.Collection) (<-chan repository.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	key := feedKey(userID, collection)
	ch := make(chan repository.Change, 1)
	f.subs[key] = append(f.subs[key], ch)

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subs[key]
		for i, c := range subs {
			if c == ch {
				f.subs[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(f.subs[key]) == 0 {
			delete(f.subs, key)
		}
		close(ch)
	}()

	return ch, nil
}

// Publish доставляет изменение всем подписчикам (пользователь, коллекция)
func (f *FakeChangeFeed) Publish(change repository.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[feedKey(change.UserID, change.Collection)] {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribers возвращает число открытых подписок
func (f *FakeChangeFeed) Subscribers(userID string, collection repository.Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[feedKey(userID, collection)])
}

// Total возвращает число открытых подписок по всем ключам
func (f *FakeChangeFeed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, subs := range f.subs {
		n += len(subs)
	}
	return n
}
