package handler

import (
	"time"

	"github.com/bagdasarian/time-tracker/internal/aggregation"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/reconciler"
	"github.com/bagdasarian/time-tracker/internal/service"
)

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func domainEntryToHTTP(e *domain.TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:        e.ID,
		TaskID:    e.TaskID,
		UserID:    e.UserID,
		StartTime: e.StartTime.UTC().Format(time.RFC3339),
		EndTime:   formatTime(e.EndTime),
		Duration:  e.Duration,
		Notes:     e.Notes,
		IsActive:  e.IsActive(),
	}
}

func domainEntriesToHTTP(entries []*domain.TimeEntry) []TimeEntryResponse {
	result := make([]TimeEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, domainEntryToHTTP(e))
	}
	return result
}

func optionalEntryToHTTP(e *domain.TimeEntry) *TimeEntryResponse {
	if e == nil {
		return nil
	}
	resp := domainEntryToHTTP(e)
	return &resp
}

func httpEntryPatchToDomain(req UpdateEntryRequest) domain.TimeEntryPatch {
	return domain.TimeEntryPatch{
		TaskID:    req.TaskID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.Duration,
		Notes:     req.Notes,
	}
}

func domainProjectToHTTP(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UserID:      p.UserID,
		IsShared:    p.IsShared,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func domainProjectsToHTTP(projects []*domain.Project) []ProjectResponse {
	result := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		result = append(result, domainProjectToHTTP(p))
	}
	return result
}

func httpProjectToInput(req ProjectRequest) service.ProjectInput {
	return service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		IsShared:    req.IsShared,
	}
}

func domainTaskToHTTP(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		ProjectID:        t.ProjectID,
		UserID:           t.UserID,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		Deadline:         formatTime(t.Deadline),
		EstimatedMinutes: t.EstimatedMinutes,
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func domainTasksToHTTP(tasks []*domain.Task) []TaskResponse {
	result := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, domainTaskToHTTP(t))
	}
	return result
}

func httpTaskToInput(req CreateTaskRequest) service.TaskInput {
	return service.TaskInput{
		Title:            req.Title,
		Description:      req.Description,
		ProjectID:        req.ProjectID,
		Status:           domain.TaskStatus(req.Status),
		Priority:         domain.Priority(req.Priority),
		Deadline:         req.Deadline,
		EstimatedMinutes: req.EstimatedMinutes,
	}
}

func httpTaskPatchToDomain(req UpdateTaskRequest) domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:            req.Title,
		Description:      req.Description,
		Deadline:         req.Deadline,
		ClearDeadline:    req.ClearDeadline,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		patch.Priority = &priority
	}
	return patch
}

func domainBucketsToHTTP(buckets []aggregation.Bucket) []BucketResponse {
	result := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, BucketResponse{
			Key:     b.Key,
			Label:   b.Label,
			Seconds: b.Seconds,
			Hours:   b.Hours,
		})
	}
	return result
}

func domainReportToHTTP(r *service.Report) ReportResponse {
	return ReportResponse{
		UserID:       r.UserID,
		GroupBy:      string(r.GroupBy),
		Buckets:      domainBucketsToHTTP(r.Buckets),
		TotalSeconds: r.TotalSeconds,
		Entries:      domainEntriesToHTTP(r.Entries),
	}
}

func domainDashboardToHTTP(d *domain.Dashboard) DashboardResponse {
	hours := make([]ProjectHoursResponse, 0, len(d.ProjectHours))
	for _, p := range d.ProjectHours {
		hours = append(hours, ProjectHoursResponse{
			ProjectID: p.ProjectID,
			Name:      p.Name,
			Hours:     p.Hours,
		})
	}

	return DashboardResponse{
		TodaySeconds:      d.TodaySeconds,
		WeekSeconds:       d.WeekSeconds,
		MonthSeconds:      d.MonthSeconds,
		CompletedTasks:    d.CompletedTasks,
		InProgressTasks:   d.InProgressTasks,
		UpcomingDeadlines: domainTasksToHTTP(d.UpcomingDeadlines),
		OverdueTasks:      domainTasksToHTTP(d.OverdueTasks),
		ProjectHours:      hours,
		ActiveEntry:       optionalEntryToHTTP(d.ActiveEntry),
	}
}

func domainNotificationToHTTP(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Category:  string(n.Category),
		Read:      n.Read,
		RelatedID: n.RelatedID,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func domainNotificationsToHTTP(notifications []*domain.Notification) []NotificationResponse {
	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, domainNotificationToHTTP(n))
	}
	return result
}

func viewToHTTP(v reconciler.View) ViewResponse {
	anomalies := make([]string, 0, len(v.Anomalies))
	for _, e := range v.Anomalies {
		anomalies = append(anomalies, e.ID)
	}

	return ViewResponse{
		Projects:      domainProjectsToHTTP(v.Projects),
		Tasks:         domainTasksToHTTP(v.Tasks),
		Entries:       domainEntriesToHTTP(v.Entries),
		Notifications: domainNotificationsToHTTP(v.Notifications),
		Active:        optionalEntryToHTTP(v.Active),
		Anomalies:     anomalies,
		Version:       v.Version,
		RefreshedAt:   v.RefreshedAt.UTC().Format(time.RFC3339),
	}
}
