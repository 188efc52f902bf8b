package domain

import "time"

type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string
	Title       string
	Description string
	ProjectID   string
	UserID      string
	Status      TaskStatus
	Priority    Priority
	Deadline    *time.Time
	// EstimatedMinutes - оценка трудозатрат в минутах
	EstimatedMinutes *int
	CreatedAt        time.Time
}

// TaskPatch описывает частичное обновление задачи, nil-поля не меняются
type TaskPatch struct {
	Title            *string
	Description      *string
	Status           *TaskStatus
	Priority         *Priority
	Deadline         *time.Time
	ClearDeadline    bool
	EstimatedMinutes *int
}
