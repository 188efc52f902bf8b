package aggregation

import (
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

// Filter - критерии отбора записей перед агрегацией
type Filter struct {
	From      *time.Time
	To        *time.Time
	ProjectID string
	UserID    string
}

// Apply возвращает записи, у которых начало лежит в [From, To] и которые
// относятся к проекту и пользователю фильтра (пустые поля не ограничивают)
func (f Filter) Apply(entries []*domain.TimeEntry, tasks []*domain.Task) []*domain.TimeEntry {
	var projectTasks map[string]struct{}
	if f.ProjectID != "" {
		projectTasks = make(map[string]struct{})
		for _, t := range tasks {
			if t.ProjectID == f.ProjectID {
				projectTasks[t.ID] = struct{}{}
			}
		}
	}

	result := make([]*domain.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if f.From != nil && e.StartTime.Before(*f.From) {
			continue
		}
		if f.To != nil && e.StartTime.After(*f.To) {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if projectTasks != nil {
			if _, ok := projectTasks[e.TaskID]; !ok {
				continue
			}
		}
		result = append(result, e)
	}
	return result
}
