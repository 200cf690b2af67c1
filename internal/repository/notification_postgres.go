package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// NotificationRepository implements domain.NotificationRepository using
// PostgreSQL
type NotificationRepository struct {
	systemDB *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository instance
func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &NotificationRepository{
		systemDB: db,
	}
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if err := notification.Validate(); err != nil {
		return err
	}

	channels, err := json.Marshal(notification.Channels)
	if err != nil {
		return fmt.Errorf("failed to marshal notification channels: %w", err)
	}

	query := `
		INSERT INTO notifications (id, kind, title, message, domain_id, channels, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.systemDB.ExecContext(ctx, query,
		notification.ID,
		string(notification.Kind),
		notification.Title,
		notification.Message,
		notification.DomainID,
		channels,
		notification.Read,
		notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// MarkRead flags one notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.systemDB.ExecContext(ctx,
		"UPDATE notifications SET read = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check mark read result: %w", err)
	}
	if affected == 0 {
		return &domain.ErrNotFound{Entity: "notification", ID: id}
	}
	return nil
}

// ListUnread returns unread notifications, optionally narrowed to one
// kind, newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, kind *domain.NotificationKind) ([]*domain.Notification, error) {
	query := `
		SELECT id, kind, title, message, domain_id, channels, read, created_at
		FROM notifications
		WHERE read = FALSE`
	args := []interface{}{}
	if kind != nil {
		query += " AND kind = $1"
		args = append(args, string(*kind))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kindStr string
		var domainID sql.NullString
		var channels []byte
		if err := rows.Scan(&n.ID, &kindStr, &n.Title, &n.Message, &domainID, &channels, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = domain.NotificationKind(kindStr)
		n.DomainID = domainID.String
		if len(channels) > 0 {
			if err := json.Unmarshal(channels, &n.Channels); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification channels: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}
