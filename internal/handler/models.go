package handler

import "time"

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StartRequest struct {
	TaskID string  `json:"task_id"`
	Notes  *string `json:"notes"`
}

type StopRequest struct {
	EntryID string `json:"entry_id"`
}

type UpdateEntryRequest struct {
	TaskID    *string    `json:"task_id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Duration  *int64     `json:"duration"`
	Notes     *string    `json:"notes"`
}

type TimeEntryResponse struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"task_id"`
	UserID    string  `json:"user_id"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Duration  *int64  `json:"duration"`
	Notes     *string `json:"notes"`
	IsActive  bool    `json:"is_active"`
}

type ActiveEntryResponse struct {
	Entry *TimeEntryResponse `json:"entry"`
	// Elapsed - прошедшее время активной записи в формате HH:MM:SS
	Elapsed string `json:"elapsed,omitempty"`
}

type TotalResponse struct {
	Seconds int64  `json:"seconds"`
	Human   string `json:"human"`
}

type ProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsShared    bool    `json:"is_shared"`
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	UserID      string  `json:"user_id"`
	IsShared    bool    `json:"is_shared"`
	CreatedAt   string  `json:"created_at"`
}

type CreateTaskRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ProjectID        string     `json:"project_id"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Deadline         *time.Time `json:"deadline"`
	EstimatedMinutes *int       `json:"estimated_time"`
}

type UpdateTaskRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Status           *string    `json:"status"`
	Priority         *string    `json:"priority"`
	Deadline         *time.Time `json:"deadline"`
	ClearDeadline    bool       `json:"clear_deadline"`
	EstimatedMinutes *int       `json:"estimated_time"`
}

type TaskResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	ProjectID        string  `json:"project_id"`
	UserID           string  `json:"user_id"`
	Status           string  `json:"status"`
	Priority         string  `json:"priority"`
	Deadline         *string `json:"deadline"`
	EstimatedMinutes *int    `json:"estimated_time"`
	CreatedAt        string  `json:"created_at"`
}

type ProgressResponse struct {
	TaskID       string `json:"task_id"`
	SpentSeconds int64  `json:"spent_seconds"`
	Percent      int    `json:"percent"`
}

type BucketResponse struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Seconds int64  `json:"seconds"`
	Hours   int64  `json:"hours"`
}

type ReportResponse struct {
	UserID       string              `json:"user_id"`
	GroupBy      string              `json:"group_by"`
	Buckets      []BucketResponse    `json:"buckets"`
	TotalSeconds int64               `json:"total_seconds"`
	Entries      []TimeEntryResponse `json:"entries"`
}

type ProjectHoursResponse struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Hours     int64  `json:"hours"`
}

type DashboardResponse struct {
	TodaySeconds      int64                  `json:"today_seconds"`
	WeekSeconds       int64                  `json:"week_seconds"`
	MonthSeconds      int64                  `json:"month_seconds"`
	CompletedTasks    int                    `json:"completed_tasks"`
	InProgressTasks   int                    `json:"in_progress_tasks"`
	UpcomingDeadlines []TaskResponse         `json:"upcoming_deadlines"`
	OverdueTasks      []TaskResponse         `json:"overdue_tasks"`
	ProjectHours      []ProjectHoursResponse `json:"project_hours"`
	ActiveEntry       *TimeEntryResponse     `json:"active_entry"`
}

type NotificationResponse struct {
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	Category  string  `json:"category"`
	Read      bool    `json:"read"`
	RelatedID *string `json:"related_id"`
	CreatedAt string  `json:"created_at"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type ViewResponse struct {
	Projects      []ProjectResponse      `json:"projects"`
	Tasks         []TaskResponse         `json:"tasks"`
	Entries       []TimeEntryResponse    `json:"entries"`
	Notifications []NotificationResponse `json:"notifications"`
	Active        *TimeEntryResponse     `json:"active"`
	Anomalies     []string               `json:"anomalies"`
	Version       uint64                 `json:"version"`
	RefreshedAt   string                 `json:"refreshed_at"`
}
