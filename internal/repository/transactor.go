package repository

import "context"

// Repositories - набор репозиториев, работающих в одной транзакции
type Repositories struct {
	Users         UserRepository
	Projects      ProjectRepository
	Tasks         TaskRepository
	TimeEntries   TimeEntryRepository
	Notifications NotificationRepository
}

// Transactor выполняет fn в транзакции: commit при nil, rollback при ошибке
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
