package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/model"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification; new rows always start unread.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	query := `
        INSERT INTO notifications (recipient_id, message, type, related_type, related_id, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
        RETURNING id, recipient_id, message, type, related_type, related_id, is_read, created_at
    `
	var out model.Notification
	err := r.db.QueryRow(ctx, query, n.RecipientID, n.Message, n.Type, n.RelatedType, n.RelatedID).Scan(
		&out.ID,
		&out.RecipientID,
		&out.Message,
		&out.Type,
		&out.RelatedType,
		&out.RelatedID,
		&out.IsRead,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &out, nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID, limit int) ([]model.Notification, error) {
	query := `
        SELECT id, recipient_id, message, type, related_type, related_id, is_read, created_at
        FROM notifications
        WHERE recipient_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Message,
			&n.Type,
			&n.RelatedType,
			&n.RelatedID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread returns the recipient's unread notification count.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. The recipient filter makes
// cross-recipient mutation report not-found instead of touching the row.
// Marking an already-read notification succeeds.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int) (*model.Notification, error) {
	query := `
        UPDATE notifications
        SET is_read = TRUE
        WHERE id = $1 AND recipient_id = $2
        RETURNING id, recipient_id, message, type, related_type, related_id, is_read, created_at
    `
	var n model.Notification
	err := r.db.QueryRow(ctx, query, id, recipientID).Scan(
		&n.ID,
		&n.RecipientID,
		&n.Message,
		&n.Type,
		&n.RelatedType,
		&n.RelatedID,
		&n.IsRead,
		&n.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("notification %d for recipient %d", id, recipientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return &n, nil
}

// MarkAllRead flags every unread notification of the recipient and
// returns how many rows changed. A second call is a no-op returning 0.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int) (int, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`
	tag, err := r.db.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
