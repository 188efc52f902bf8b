package postgres

import (
	"context"
	"database/sql"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/google/uuid"
)

type userRepository struct {
	executor DBExecutor
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{executor: db}
}

func NewUserRepositoryWithTx(tx *sql.Tx) *userRepository {
	return &userRepository{executor: tx}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleMember
	}

	query := `
		INSERT INTO users (id, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.executor.QueryRowContext(ctx, query, user.ID, user.Email, user.FullName, string(user.Role)).
		Scan(&user.CreatedAt)
	return classify(err, "user", "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, full_name, role, created_at
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	var role string
	err := r.executor.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, classify(err, "user with id "+id, "get user")
	}
	user.Role = domain.Role(role)

	return user, nil
}

func (r *userRepository) LockForUpdate(ctx context.Context, id string) error {
	var lockedID string
	err := r.executor.QueryRowContext(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", id).Scan(&lockedID)
	return classify(err, "user with id "+id, "lock user")
}
