package triage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type triageRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &triageRepoPG{pool: pool} }

func (r *triageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *triageRepoPG) Create(ctx context.Context, t *Record) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO triage_records (id, mother_id, symptoms, blood_pressure_systolic,
			blood_pressure_diastolic, heart_rate, temperature, spo2, risk_score, risk_level,
			factors, notes, assessed_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at`,
		t.ID, t.MotherID, t.Symptoms, t.Systolic, t.Diastolic, t.HeartRate, t.Temperature,
		t.SpO2, t.RiskScore, t.RiskLevel, t.Factors, t.Notes, t.AssessedBy,
	).Scan(&t.CreatedAt)
	return apperr.FromDB(err, "triage record")
}

func (r *triageRepoPG) ListByMother(ctx context.Context, motherID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.id, t.mother_id, t.symptoms, t.blood_pressure_systolic, t.blood_pressure_diastolic,
			t.heart_rate, t.temperature::float8, t.spo2, t.risk_score, t.risk_level, t.factors,
			t.notes, t.assessed_by, u.full_name, t.created_at
		FROM triage_records t
		LEFT JOIN users u ON u.id = t.assessed_by
		WHERE t.mother_id = $1
		ORDER BY t.created_at DESC`, motherID)
	if err != nil {
		return nil, fmt.Errorf("list triage records: %w", err)
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		var t Record
		if err := rows.Scan(&t.ID, &t.MotherID, &t.Symptoms, &t.Systolic, &t.Diastolic,
			&t.HeartRate, &t.Temperature, &t.SpO2, &t.RiskScore, &t.RiskLevel, &t.Factors,
			&t.Notes, &t.AssessedBy, &t.AssessorName, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}
