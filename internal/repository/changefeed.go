package repository

import "context"

type Collection string

const (
	CollectionProjects      Collection = "projects"
	CollectionTasks         Collection = "tasks"
	CollectionTimeEntries   Collection = "time_entries"
	CollectionNotifications Collection = "notifications"
)

// Collections - все коллекции, на которые подписывается сессия
var Collections = []Collection{
	CollectionProjects,
	CollectionTasks,
	CollectionTimeEntries,
	CollectionNotifications,
}

func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// OpResync - служебное изменение после восстановления ленты: перечитать коллекцию целиком
const OpResync = "RESYNC"

type Change struct {
	Collection Collection `json:"table"`
	Op         string     `json:"op"`
	UserID     string     `json:"user_id"`
	RecordID   string     `json:"id"`
	// Shared - изменение общего проекта или его задачи, доставляется всем подписчикам коллекции
	Shared bool `json:"shared"`
}

// ChangeFeed доставляет уведомления об изменениях, отфильтрованные по пользователю.
// Канал закрывается после отмены ctx.
type ChangeFeed interface {
	Subscribe(ctx context.Context, userID string, collection Collection) (<-chan Change, error)
}
