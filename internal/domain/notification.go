package domain

import "time"

type NotificationCategory string

const (
	NotificationDeadline  NotificationCategory = "deadline"
	NotificationThreshold NotificationCategory = "threshold"
	NotificationMention   NotificationCategory = "mention"
	NotificationSystem    NotificationCategory = "system"
)

type Notification struct {
	ID        string
	UserID    string
	Message   string
	Category  NotificationCategory
	Read      bool
	RelatedID *string
	CreatedAt time.Time
}
