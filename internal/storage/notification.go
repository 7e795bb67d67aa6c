package storage

import (
	"context"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// InsertNotification сохраняет уведомление во входящие пользователя.
func (s *Storage) InsertNotification(ctx context.Context, n *models.Notification) error {
	const op = "storage.InsertNotification"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	query := `INSERT INTO notifications (user_id, title, body, is_read, created_at)
			  VALUES ($1, $2, $3, FALSE, COALESCE($4, NOW()))
			  RETURNING notification_id, created_at`
	var createdAt any
	if !n.CreatedAt.IsZero() {
		createdAt = n.CreatedAt
	}
	err := s.conn(ctx).QueryRowContext(ctx, query, n.UserID, n.Title, n.Body, createdAt).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return classify(op, err, "notification")
	}
	return nil
}

// ListNotifications возвращает последние уведомления пользователя.
func (s *Storage) ListNotifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT notification_id, user_id, title, body, is_read, created_at
			  FROM notifications
			  WHERE user_id = $1
			  ORDER BY notification_id DESC
			  LIMIT $2`
	rows, err := s.conn(ctx).QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, classify(op, err, "notification")
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, classify(op, err, "notification")
		}
		result = append(result, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(op, err, "notification")
	}
	return result, nil
}
