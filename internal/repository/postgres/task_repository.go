package postgres

import (
	"context"
	"database/sql"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/google/uuid"
)

type taskRepository struct {
	executor DBExecutor
}

func NewTaskRepository(db *sql.DB) *taskRepository {
	return &taskRepository{executor: db}
}

func NewTaskRepositoryWithTx(tx *sql.Tx) *taskRepository {
	return &taskRepository{executor: tx}
}

const taskColumns = `id, title, description, project_id, user_id, status, priority, deadline, estimated_minutes, created_at`

func scanTask(row rowScanner) (*domain.Task, error) {
	t := &domain.Task{}
	var status, priority string
	var deadline sql.NullTime
	var estimated sql.NullInt64
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.ProjectID,
		&t.UserID,
		&status,
		&priority,
		&deadline,
		&estimated,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.Priority(priority)
	t.Deadline = nullTime(deadline)
	if estimated.Valid {
		minutes := int(estimated.Int64)
		t.EstimatedMinutes = &minutes
	}
	return t, nil
}

func (r *taskRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "tasks", "list tasks")
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, classify(err, "tasks", "scan task")
		}
		tasks = append(tasks, task)
	}

	return tasks, classify(rows.Err(), "tasks", "list tasks")
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	query := `
		INSERT INTO tasks (id, title, description, project_id, user_id, status, priority, deadline, estimated_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.executor.QueryRowContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.ProjectID,
		task.UserID,
		string(task.Status),
		string(task.Priority),
		task.Deadline,
		task.EstimatedMinutes,
	).Scan(&task.CreatedAt)
	return classify(err, "task", "create task")
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err, "task with id "+id, "get task")
	}
	return task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListVisible возвращает собственные задачи и задачи всех видимых пользователю проектов
func (r *taskRepository) ListVisible(ctx context.Context, userID string) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		   OR project_id IN (SELECT id FROM projects WHERE user_id = $1 OR is_shared)
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, deadline = $6, estimated_minutes = $7
		WHERE id = $1
	`

	result, err := r.executor.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.Deadline,
		task.EstimatedMinutes,
	)
	if err != nil {
		return classify(err, "task", "update task")
	}
	return expectAffected(result, "task with id "+task.ID, "update task")
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	result, err := r.executor.ExecContext(ctx, "UPDATE tasks SET status = $2 WHERE id = $1", id, string(status))
	if err != nil {
		return classify(err, "task", "update task status")
	}
	return expectAffected(result, "task with id "+id, "update task status")
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.executor.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return classify(err, "task", "delete task")
	}
	return expectAffected(result, "task with id "+id, "delete task")
}

func (r *taskRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	_, err := r.executor.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = $1", projectID)
	return classify(err, "tasks", "delete project tasks")
}
