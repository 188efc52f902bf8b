package postgres

import (
	"context"
	"database/sql"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/google/uuid"
)

type projectRepository struct {
	executor DBExecutor
}

func NewProjectRepository(db *sql.DB) *projectRepository {
	return &projectRepository{executor: db}
}

func NewProjectRepositoryWithTx(tx *sql.Tx) *projectRepository {
	return &projectRepository{executor: tx}
}

const projectColumns = `id, name, description, user_id, is_shared, created_at`

func scanProject(row rowScanner) (*domain.Project, error) {
	p := &domain.Project{}
	var description sql.NullString
	err := row.Scan(&p.ID, &p.Name, &description, &p.UserID, &p.IsShared, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = nullString(description)
	return p, nil
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	query := `
		INSERT INTO projects (id, name, description, user_id, is_shared)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.executor.QueryRowContext(
		ctx,
		query,
		project.ID,
		project.Name,
		project.Description,
		project.UserID,
		project.IsShared,
	).Scan(&project.CreatedAt)
	return classify(err, "project", "create project")
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err, "project with id "+id, "get project")
	}
	return project, nil
}

func (r *projectRepository) ListVisible(ctx context.Context, userID string) ([]*domain.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE user_id = $1 OR is_shared = TRUE
		ORDER BY created_at DESC
	`

	rows, err := r.executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err, "projects", "list projects")
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, classify(err, "projects", "scan project")
		}
		projects = append(projects, project)
	}

	return projects, classify(rows.Err(), "projects", "list projects")
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, is_shared = $4
		WHERE id = $1
	`

	result, err := r.executor.ExecContext(ctx, query, project.ID, project.Name, project.Description, project.IsShared)
	if err != nil {
		return classify(err, "project", "update project")
	}
	return expectAffected(result, "project with id "+project.ID, "update project")
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.executor.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return classify(err, "project", "delete project")
	}
	return expectAffected(result, "project with id "+id, "delete project")
}
