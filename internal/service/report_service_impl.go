package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bagdasarian/time-tracker/internal/aggregation"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/duration"
	"github.com/bagdasarian/time-tracker/internal/export"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

const reportTitle = "Time Tracking Report"

var exportHeaders = []string{"Date", "Project", "Task", "Start", "End", "Duration", "Notes"}

type reportService struct {
	repos   repository.Repositories
	tracker TrackerService
	loc     *time.Location
	log     logrus.FieldLogger
}

// NewReportService создает сервис отчетов. loc - часовой пояс по умолчанию.
func NewReportService(
	repos repository.Repositories,
	tracker TrackerService,
	loc *time.Location,
	log logrus.FieldLogger,
) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		repos:   repos,
		tracker: tracker,
		loc:     loc,
		log:     log,
	}
}

// reportData - записи отчета и справочники для подписей
type reportData struct {
	entries  []*domain.TimeEntry
	tasks    []*domain.Task
	projects []*domain.Project
}

func (s *reportService) Generate(ctx context.Context, sess domain.Session, filter ReportFilter) (*Report, error) {
	groupBy := filter.GroupBy
	if groupBy == "" {
		groupBy = aggregation.GroupByProject
	}
	if !groupBy.Valid() {
		return nil, domain.NewInvalidInputError("unknown group by %q", groupBy)
	}

	userID, err := s.target(sess, filter)
	if err != nil {
		return nil, err
	}

	data, err := s.load(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	buckets, err := aggregation.Aggregate(data.entries, data.tasks, data.projects, groupBy, aggregation.Options{
		Location: s.location(filter),
		Sort:     true,
	})
	if err != nil {
		return nil, err
	}

	return &Report{
		UserID:       userID,
		GroupBy:      groupBy,
		Buckets:      buckets,
		TotalSeconds: aggregation.TotalSeconds(buckets),
		Entries:      data.entries,
	}, nil
}

func (s *reportService) Export(ctx context.Context, sess domain.Session, filter ReportFilter, format export.Format) (*ExportFile, error) {
	userID, err := s.target(sess, filter)
	if err != nil {
		return nil, err
	}

	data, err := s.load(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:    reportTitle,
		Subtitle: s.period(filter),
		Headers:  exportHeaders,
		Rows:     exportRows(data, s.location(filter)),
	}

	body, err := export.Render(table, format)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"format":  format,
		"rows":    len(table.Rows),
	}).Info("report exported")

	return &ExportFile{
		Filename:    export.Filename(reportTitle, format),
		ContentType: format.ContentType(),
		Data:        body,
	}, nil
}

func (s *reportService) Dashboard(ctx context.Context, sess domain.Session, now time.Time) (*domain.Dashboard, error) {
	if sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	data, err := s.load(ctx, sess.UserID, ReportFilter{})
	if err != nil {
		return nil, err
	}

	local := now.In(s.loc)
	dayStart := aggregation.DayStart(local)
	weekStart := aggregation.WeekStart(local)
	monthStart := aggregation.MonthStart(local)

	dash := &domain.Dashboard{GeneratedAt: now}
	for _, e := range data.entries {
		if e.StartTime.After(now) {
			continue
		}
		secs := duration.EntrySeconds(e)
		if !e.StartTime.Before(dayStart) {
			dash.TodaySeconds += secs
		}
		if !e.StartTime.Before(weekStart) {
			dash.WeekSeconds += secs
		}
		if !e.StartTime.Before(monthStart) {
			dash.MonthSeconds += secs
		}
	}

	for _, task := range data.tasks {
		if task.UserID != sess.UserID {
			continue
		}
		switch task.Status {
		case domain.TaskStatusCompleted:
			dash.CompletedTasks++
			continue
		case domain.TaskStatusInProgress:
			dash.InProgressTasks++
		}
		if duration.IsDeadlineApproaching(task.Deadline, now) {
			dash.UpcomingDeadlines = append(dash.UpcomingDeadlines, task)
		}
		if duration.IsDeadlinePassed(task.Deadline, now) {
			dash.OverdueTasks = append(dash.OverdueTasks, task)
		}
	}

	buckets, err := aggregation.Aggregate(data.entries, data.tasks, data.projects, aggregation.GroupByProject, aggregation.Options{Sort: true})
	if err != nil {
		return nil, err
	}
	for _, b := range buckets {
		dash.ProjectHours = append(dash.ProjectHours, domain.ProjectHours{
			ProjectID: b.Key,
			Name:      b.Label,
			Hours:     b.Hours,
		})
	}

	if s.tracker != nil {
		active, err := s.tracker.ActiveEntry(ctx, sess)
		if err != nil {
			return nil, err
		}
		dash.ActiveEntry = active
	}

	return dash, nil
}

// target определяет, чьи записи попадают в отчет: чужие доступны только администратору
func (s *reportService) target(sess domain.Session, filter ReportFilter) (string, error) {
	if sess.UserID == "" {
		return "", domain.ErrUnauthorized
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return "", domain.ErrInvalidRange
	}
	if filter.UserID == "" || filter.UserID == sess.UserID {
		return sess.UserID, nil
	}
	if !sess.IsAdmin() {
		return "", domain.ErrForbidden
	}
	return filter.UserID, nil
}

func (s *reportService) location(filter ReportFilter) *time.Location {
	if filter.Location != nil {
		return filter.Location
	}
	return s.loc
}

// load читает записи пользователя и дочитывает задачи и проекты,
// на которые они ссылаются (в том числе чужие из общих проектов)
func (s *reportService) load(ctx context.Context, userID string, filter ReportFilter) (*reportData, error) {
	entries, err := s.repos.TimeEntries.ListByUser(ctx, userID, domain.EntryFilter{
		From: filter.From,
		To:   filter.To,
	})
	if err != nil {
		return nil, err
	}

	tasks, err := s.repos.Tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	projects, err := s.repos.Projects.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}

	knownTasks := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		knownTasks[t.ID] = struct{}{}
	}
	for _, e := range entries {
		if _, ok := knownTasks[e.TaskID]; ok {
			continue
		}
		knownTasks[e.TaskID] = struct{}{}
		task, err := s.repos.Tasks.GetByID(ctx, e.TaskID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	knownProjects := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		knownProjects[p.ID] = struct{}{}
	}
	for _, t := range tasks {
		if _, ok := knownProjects[t.ProjectID]; ok {
			continue
		}
		knownProjects[t.ProjectID] = struct{}{}
		project, err := s.repos.Projects.GetByID(ctx, t.ProjectID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	f := aggregation.Filter{
		From:      filter.From,
		To:        filter.To,
		ProjectID: filter.ProjectID,
		UserID:    userID,
	}
	return &reportData{
		entries:  f.Apply(entries, tasks),
		tasks:    tasks,
		projects: projects,
	}, nil
}

func (s *reportService) period(filter ReportFilter) string {
	loc := s.location(filter)
	switch {
	case filter.From != nil && filter.To != nil:
		return fmt.Sprintf("%s - %s", filter.From.In(loc).Format("2006-01-02"), filter.To.In(loc).Format("2006-01-02"))
	case filter.From != nil:
		return "Since " + filter.From.In(loc).Format("2006-01-02")
	case filter.To != nil:
		return "Until " + filter.To.In(loc).Format("2006-01-02")
	}
	return "All time"
}

func exportRows(data *reportData, loc *time.Location) [][]string {
	taskByID := make(map[string]*domain.Task, len(data.tasks))
	for _, t := range data.tasks {
		taskByID[t.ID] = t
	}
	projectByID := make(map[string]*domain.Project, len(data.projects))
	for _, p := range data.projects {
		projectByID[p.ID] = p
	}

	rows := make([][]string, 0, len(data.entries))
	for _, e := range data.entries {
		taskName, projectName := "Unknown", "Unknown"
		if task, ok := taskByID[e.TaskID]; ok {
			taskName = task.Title
			if project, ok := projectByID[task.ProjectID]; ok {
				projectName = project.Name
			}
		}

		start := e.StartTime.In(loc)
		end := "-"
		if e.EndTime != nil {
			end = e.EndTime.In(loc).Format("15:04")
		}
		spent := "-"
		if !e.IsActive() {
			spent = hoursMinutes(duration.EntrySeconds(e))
		}
		notes := "-"
		if e.Notes != nil && *e.Notes != "" {
			notes = *e.Notes
		}

		rows = append(rows, []string{
			start.Format("2006-01-02"),
			projectName,
			taskName,
			start.Format("15:04"),
			end,
			spent,
			notes,
		})
	}
	return rows
}

// hoursMinutes форматирует секунды как "2h 5m"
func hoursMinutes(seconds int64) string {
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
