package sqlite

import (
	"fmt"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification stores a notification and returns its ID.
func (d *DB) InsertNotification(n domain.Notification) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO notifications (user_id, type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		n.UserID, string(n.Type), n.Title, n.Body, n.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPendingNotifications returns unshown notifications, oldest first.
func (d *DB) ListPendingNotifications(userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		`SELECT id, user_id, type, title, body, created_at, shown
		 FROM notifications WHERE user_id = ? AND shown = 0
		 ORDER BY created_at ASC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &createdAt, &n.Shown); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		n.CreatedAt = time.Unix(createdAt, 0)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationShown marks a notification as shown.
func (d *DB) MarkNotificationShown(id int64) error {
	_, err := d.db.Exec(`UPDATE notifications SET shown = 1 WHERE id = ?`, id)
	return err
}

// NotificationCountToday returns how many notifications were created for
// the user since UTC midnight.
func (d *DB) NotificationCountToday(userID string) (int, error) {
	midnight := domain.CanonicalDay(time.Now())
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND created_at >= ?`,
		userID, midnight.Unix(),
	).Scan(&count)
	return count, err
}
