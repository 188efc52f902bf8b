package domain

import "time"

type TimeEntry struct {
	ID        string
	TaskID    string
	UserID    string
	StartTime time.Time
	EndTime   *time.Time
	// Duration в секундах; после остановки является источником истины
	Duration  *int64
	Notes     *string
	CreatedAt time.Time
}

// IsActive возвращает true для записи без времени окончания
func (e *TimeEntry) IsActive() bool {
	return e.EndTime == nil
}

// Clone возвращает независимую копию записи
func (e *TimeEntry) Clone() *TimeEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.EndTime != nil {
		end := *e.EndTime
		c.EndTime = &end
	}
	if e.Duration != nil {
		d := *e.Duration
		c.Duration = &d
	}
	if e.Notes != nil {
		n := *e.Notes
		c.Notes = &n
	}
	return &c
}

// TimeEntryPatch - ручное редактирование записи
type TimeEntryPatch struct {
	TaskID    *string
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int64
	Notes     *string
}

// EntryFilter ограничивает выборку записей по пользователю
type EntryFilter struct {
	TaskID string
	From   *time.Time
	To     *time.Time
}
