package repository

import (
	"context"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/doug-martin/goqu/v9"
)

// notificationRepo is the concrete implementation of NotificationRepository
type notificationRepo struct {
	db DBTX
}

// NewNotificationRepo creates a new notification repository
func NewNotificationRepo(db DBTX) NotificationRepository {
	return &notificationRepo{db: db}
}

// Create inserts a notification record
func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_user_id, type, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.RecipientUserID, n.Type, []byte(n.Payload), n.Read, n.CreatedAt,
	)
	return err
}

// ListForRecipient returns the newest notifications for a user
func (r *notificationRepo) ListForRecipient(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	ds := dialect.From("notifications").Prepared(true).
		Select("id", "recipient_user_id", "type", "payload", "read", "created_at").
		Where(goqu.C("recipient_user_id").Eq(userID))
	if unreadOnly {
		ds = ds.Where(goqu.C("read").IsFalse())
	}
	query, args, err := ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.Type, &payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Payload = payload
		list = append(list, &n)
	}
	return list, rows.Err()
}

// CountUnread returns the number of unread notifications for a user
func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_user_id = $1 AND read = FALSE`, userID,
	).Scan(&count)
	return count, err
}

// MarkRead marks a notification read if it belongs to userID
func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_user_id = $2`, id, userID,
	)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// StreamSince streams notifications created after since, oldest first
func (r *notificationRepo) StreamSince(ctx context.Context, since time.Time, callback func(*models.Notification) error) error {
	query := `
		SELECT id, recipient_user_id, type, payload, read, created_at
		FROM notifications WHERE created_at > $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var n models.Notification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.Type, &payload, &n.Read, &n.CreatedAt); err != nil {
			return err
		}
		n.Payload = payload
		if err := callback(&n); err != nil {
			return err
		}
	}
	return rows.Err()
}
