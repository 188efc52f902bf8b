package postgres

import (
	"context"
	"database/sql"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/google/uuid"
)

type notificationRepository struct {
	executor DBExecutor
}

func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{executor: db}
}

func NewNotificationRepositoryWithTx(tx *sql.Tx) *notificationRepository {
	return &notificationRepository{executor: tx}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	query := `
		INSERT INTO notifications (id, user_id, message, category, read, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.executor.QueryRowContext(ctx, query, n.ID, n.UserID, n.Message, string(n.Category), n.Read, n.RelatedID).
		Scan(&n.CreatedAt)
	return classify(err, "notification", "create notification")
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, message, category, read, related_id, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err, "notifications", "list notifications")
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var category string
		var relatedID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &category, &n.Read, &relatedID, &n.CreatedAt); err != nil {
			return nil, classify(err, "notifications", "scan notification")
		}
		n.Category = domain.NotificationCategory(category)
		n.RelatedID = nullString(relatedID)
		notifications = append(notifications, n)
	}

	return notifications, classify(rows.Err(), "notifications", "list notifications")
}

func (r *notificationRepository) Exists(ctx context.Context, userID string, category domain.NotificationCategory, relatedID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND category = $2 AND related_id = $3
		)
	`

	var exists bool
	err := r.executor.QueryRowContext(ctx, query, userID, string(category), relatedID).Scan(&exists)
	if err != nil {
		return false, classify(err, "notification", "check notification")
	}
	return exists, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	result, err := r.executor.ExecContext(ctx, "UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return classify(err, "notification", "mark notification read")
	}
	return expectAffected(result, "notification with id "+id, "mark notification read")
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.executor.ExecContext(ctx, "UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE", userID)
	return classify(err, "notifications", "mark notifications read")
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.executor.ExecContext(ctx, "DELETE FROM notifications WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return classify(err, "notification", "delete notification")
	}
	return expectAffected(result, "notification with id "+id, "delete notification")
}
