package nataband

import (
	"context"
	"fmt"
	"time"

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

type readingRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &readingRepoPG{pool: pool}
}

func (r *readingRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *readingRepoPG) Create(ctx context.Context, rd *Reading) error {
	rd.ID = uuid.New()
	var recordedAt *time.Time
	if !rd.RecordedAt.IsZero() {
		recordedAt = &rd.RecordedAt
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO nataband_readings (id, mother_id, device_id, heart_rate,
			blood_pressure_systolic, blood_pressure_diastolic, temperature, spo2,
			activity_level, reading_source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))
		RETURNING recorded_at`,
		rd.ID, rd.MotherID, rd.DeviceID, rd.HeartRate, rd.Systolic, rd.Diastolic,
		rd.Temperature, rd.SpO2, rd.ActivityLevel, rd.Source, recordedAt,
	).Scan(&rd.RecordedAt)
	if err != nil {
		return apperr.FromDB(err, "reading")
	}
	return nil
}

func (r *readingRepoPG) ListByMother(ctx context.Context, motherID uuid.UUID, limit int) ([]*Reading, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, mother_id, device_id, heart_rate, blood_pressure_systolic,
			blood_pressure_diastolic, temperature::float8, spo2, activity_level,
			reading_source, recorded_at
		FROM nataband_readings
		WHERE mother_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`, motherID, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		var rd Reading
		if err := rows.Scan(&rd.ID, &rd.MotherID, &rd.DeviceID, &rd.HeartRate, &rd.Systolic,
			&rd.Diastolic, &rd.Temperature, &rd.SpO2, &rd.ActivityLevel,
			&rd.Source, &rd.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &rd)
	}
	return items, rows.Err()
}
