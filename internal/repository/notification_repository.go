package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionData carries the payload for actionable notifications, e.g. the
// WhatsApp link shown on a survey assignment.
type ActionData struct {
	WhatsAppLink string `json:"whatsappLink,omitempty"`
	ProjectName  string `json:"projectName,omitempty"`
}

type Notification struct {
	ID         string
	UserID     string
	Title      string
	Message    string
	Type       string
	IsRead     bool
	ProjectID  *string
	Action     *string
	ActionData *ActionData
	CreatedAt  time.Time
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByUserID(ctx context.Context, userID string, limit int) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, id, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteAll(ctx context.Context, userID string) error
	DeleteOlderThan(ctx context.Context, age time.Duration) (int, error)
}

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

func (r *pgNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	var actionJSON []byte
	if notification.ActionData != nil {
		var err error
		actionJSON, err = json.Marshal(notification.ActionData)
		if err != nil {
			return err
		}
	}
	query := `
		INSERT INTO notifications (user_id, title, message, type, project_id, action, action_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_read, created_at
	`
	return r.pool.QueryRow(ctx, query,
		notification.UserID, notification.Title, notification.Message, notification.Type,
		notification.ProjectID, notification.Action, actionJSON,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
}

func (r *pgNotificationRepository) FindByUserID(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, title, message, type, is_read, project_id, action, action_data, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var actionJSON []byte
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead,
			&n.ProjectID, &n.Action, &actionJSON, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(actionJSON) > 0 {
			data := &ActionData{}
			if err := json.Unmarshal(actionJSON, data); err != nil {
				return nil, err
			}
			n.ActionData = data
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *pgNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return count, err
}

// MarkAsRead is idempotent: marking an already-read notification again is a
// no-op, and an id that does not belong to the user changes nothing.
func (r *pgNotificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, id, userID)
	return err
}

func (r *pgNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *pgNotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	query := `DELETE FROM notifications WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *pgNotificationRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`
	result, err := r.pool.Exec(ctx, query, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
