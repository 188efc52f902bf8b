package domain

import "time"

// Dashboard - сводка для главной страницы
type Dashboard struct {
	TodaySeconds      int64
	WeekSeconds       int64
	MonthSeconds      int64
	CompletedTasks    int
	InProgressTasks   int
	UpcomingDeadlines []*Task
	OverdueTasks      []*Task
	ProjectHours      []ProjectHours
	ActiveEntry       *TimeEntry
	GeneratedAt       time.Time
}

type ProjectHours struct {
	ProjectID string
	Name      string
	Hours     int64
}
