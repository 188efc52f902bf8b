package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/google/uuid"
)

type timeEntryRepository struct {
	executor DBExecutor
}

func NewTimeEntryRepository(db *sql.DB) *timeEntryRepository {
	return &timeEntryRepository{executor: db}
}

func NewTimeEntryRepositoryWithTx(tx *sql.Tx) *timeEntryRepository {
	return &timeEntryRepository{executor: tx}
}

const timeEntryColumns = `id, task_id, user_id, start_time, end_time, duration, notes, created_at`

func scanTimeEntry(row rowScanner) (*domain.TimeEntry, error) {
	e := &domain.TimeEntry{}
	var endTime sql.NullTime
	var duration sql.NullInt64
	var notes sql.NullString
	err := row.Scan(
		&e.ID,
		&e.TaskID,
		&e.UserID,
		&e.StartTime,
		&endTime,
		&duration,
		&notes,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.EndTime = nullTime(endTime)
	e.Duration = nullInt64(duration)
	e.Notes = nullString(notes)
	return e, nil
}

func (r *timeEntryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.TimeEntry, error) {
	rows, err := r.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "time entries", "list time entries")
	}
	defer rows.Close()

	var entries []*domain.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, classify(err, "time entries", "scan time entry")
		}
		entries = append(entries, entry)
	}

	return entries, classify(rows.Err(), "time entries", "list time entries")
}

func (r *timeEntryRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO time_entries (id, task_id, user_id, start_time, end_time, duration, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.executor.QueryRowContext(
		ctx,
		query,
		entry.ID,
		entry.TaskID,
		entry.UserID,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.Notes,
	).Scan(&entry.CreatedAt)
	return classify(err, "time entry", "create time entry")
}

func (r *timeEntryRepository) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`

	entry, err := scanTimeEntry(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err, "time entry with id "+id, "get time entry")
	}
	return entry, nil
}

func (r *timeEntryRepository) ListByUser(ctx context.Context, userID string, filter domain.EntryFilter) ([]*domain.TimeEntry, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filter.TaskID != "" {
		args = append(args, filter.TaskID)
		conditions = append(conditions, fmt.Sprintf("task_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", len(args)))
	}

	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY start_time DESC`

	return r.list(ctx, query, args...)
}

func (r *timeEntryRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.TimeEntry, error) {
	return r.list(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE task_id = $1 ORDER BY start_time DESC`, taskID)
}

func (r *timeEntryRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE user_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
	`
	return r.list(ctx, query, userID)
}

func (r *timeEntryRepository) ListActiveByTask(ctx context.Context, taskID string) ([]*domain.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE task_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
	`
	return r.list(ctx, query, taskID)
}

func (r *timeEntryRepository) Close(ctx context.Context, id string, endTime time.Time, duration int64) error {
	query := `
		UPDATE time_entries
		SET end_time = $2, duration = $3
		WHERE id = $1 AND end_time IS NULL
	`

	result, err := r.executor.ExecContext(ctx, query, id, endTime, duration)
	if err != nil {
		return classify(err, "time entry", "close time entry")
	}

	err = expectAffected(result, "time entry with id "+id, "close time entry")
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotActiveError(id)
	}
	return err
}

func (r *timeEntryRepository) Update(ctx context.Context, entry *domain.TimeEntry) error {
	query := `
		UPDATE time_entries
		SET task_id = $2, start_time = $3, end_time = $4, duration = $5, notes = $6
		WHERE id = $1
	`

	result, err := r.executor.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.TaskID,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.Notes,
	)
	if err != nil {
		return classify(err, "time entry", "update time entry")
	}
	return expectAffected(result, "time entry with id "+entry.ID, "update time entry")
}

func (r *timeEntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.executor.ExecContext(ctx, "DELETE FROM time_entries WHERE id = $1", id)
	if err != nil {
		return classify(err, "time entry", "delete time entry")
	}
	return expectAffected(result, "time entry with id "+id, "delete time entry")
}

func (r *timeEntryRepository) DeleteByTaskID(ctx context.Context, taskID string) error {
	_, err := r.executor.ExecContext(ctx, "DELETE FROM time_entries WHERE task_id = $1", taskID)
	return classify(err, "time entries", "delete task time entries")
}
