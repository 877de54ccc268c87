package education

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natabridge/natabridge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type moduleRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &moduleRepoPG{pool: pool} }

func (r *moduleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const moduleCols = `id, title, category, language, content, audio_url, image_url,
	duration_minutes, order_index, is_active, created_at`

func (r *moduleRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Module, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list education modules: %w", err)
	}
	defer rows.Close()
	var items []*Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Title, &m.Category, &m.Language, &m.Content, &m.AudioURL,
			&m.ImageURL, &m.DurationMinutes, &m.OrderIndex, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *moduleRepoPG) List(ctx context.Context, language, category string) ([]*Module, error) {
	return r.query(ctx, `SELECT `+moduleCols+` FROM education_modules
		WHERE is_active AND language = $1 AND ($2 = '' OR category = $2)
		ORDER BY category, order_index`, language, category)
}

func (r *moduleRepoPG) ListAll(ctx context.Context) ([]*Module, error) {
	return r.query(ctx, `SELECT `+moduleCols+` FROM education_modules
		ORDER BY language, category, order_index`)
}
