package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type notificationRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &notificationRepoPG{pool: pool} }

func (r *notificationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const notificationCols = `n.id, n.type, n.title, COALESCE(n.message, ''), n.mother_id, n.target_user_id,
	n.target_role, n.priority, n.is_read, n.read_at, n.created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.MotherID, &n.TargetUserID,
		&n.TargetRole, &n.Priority, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	return &n, err
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notifications (id, type, title, message, mother_id, target_user_id, target_role, priority)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		n.ID, n.Type, n.Title, n.Message, n.MotherID, n.TargetUserID, n.TargetRole, n.Priority,
	).Scan(&n.CreatedAt)
	return apperr.FromDB(err, "notification")
}

func (r *notificationRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Notification, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *notificationRepoPG) ListAll(ctx context.Context, limit int) ([]*Notification, error) {
	return r.list(ctx, `SELECT `+notificationCols+` FROM notifications n
		ORDER BY n.created_at DESC LIMIT $1`, limit)
}

func (r *notificationRepoPG) ListForMotherUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	return r.list(ctx, `SELECT `+notificationCols+` FROM notifications n
		WHERE n.mother_id IN (
			SELECT m.id FROM mothers m
			JOIN users u ON m.user_id = u.id OR (m.phone IS NOT NULL AND m.phone = u.phone)
			WHERE u.id = $1)
		ORDER BY n.created_at DESC LIMIT $2`, userID, limit)
}

func (r *notificationRepoPG) ListForCHW(ctx context.Context, chwID uuid.UUID, limit int) ([]*Notification, error) {
	return r.list(ctx, `SELECT `+notificationCols+` FROM notifications n
		WHERE n.target_role = 'chw' OR n.target_role IS NULL
			OR n.mother_id IN (SELECT mother_id FROM chw_assignments WHERE chw_id = $1)
		ORDER BY n.created_at DESC LIMIT $2`, chwID, limit)
}

func (r *notificationRepoPG) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}
