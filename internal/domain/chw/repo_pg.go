package chw

import (
	"context"
	"errors"
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

func connFrom(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) AssignFirst(ctx context.Context, motherID uuid.UUID, priority string) (*uuid.UUID, error) {
	var chwID uuid.UUID
	err := connFrom(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO chw_assignments (id, mother_id, chw_id, priority)
		SELECT $1, $2, u.id, $3 FROM users u
		WHERE u.role = 'chw' AND u.is_active
		ORDER BY u.created_at
		LIMIT 1
		ON CONFLICT (mother_id) DO UPDATE SET priority = EXCLUDED.priority
		RETURNING chw_id`, uuid.New(), motherID, priority).Scan(&chwID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromDB(err, "chw assignment")
	}
	return &chwID, nil
}

const assignmentCols = `ca.id, m.id, m.full_name, m.phone, m.address, m.risk_level,
	ca.chw_id, u.full_name, ca.priority, ca.assigned_at`

const assignmentFrom = ` FROM chw_assignments ca
	JOIN mothers m ON m.id = ca.mother_id
	LEFT JOIN users u ON u.id = ca.chw_id`

func (r *assignmentRepoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Assignment, error) {
	rows, err := connFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.MotherID, &a.MotherName, &a.MotherPhone, &a.MotherAddress,
			&a.RiskLevel, &a.CHWID, &a.CHWName, &a.Priority, &a.AssignedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

func (r *assignmentRepoPG) ListForCHW(ctx context.Context, chwID uuid.UUID) ([]*Assignment, error) {
	return r.list(ctx, `SELECT `+assignmentCols+assignmentFrom+`
		WHERE ca.chw_id = $1
		ORDER BY CASE ca.priority
			WHEN 'emergency' THEN 1
			WHEN 'high_risk' THEN 2
			WHEN 'caution' THEN 3
			ELSE 4 END, ca.assigned_at DESC`, chwID)
}

func (r *assignmentRepoPG) ListAll(ctx context.Context) ([]*Assignment, error) {
	return r.list(ctx, `SELECT `+assignmentCols+assignmentFrom+` ORDER BY ca.assigned_at DESC`)
}

// =========== Visit Repository ===========

type visitRepoPG struct{ pool *pgxpool.Pool }

func NewVisitRepoPG(pool *pgxpool.Pool) VisitRepository { return &visitRepoPG{pool: pool} }

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	err := connFrom(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO home_visits (id, mother_id, chw_id, visit_date, symptoms_observed,
			mother_condition, danger_signs, vitals, referral_needed, referral_reason,
			education_provided, notes, next_visit_date)
		VALUES ($1,$2,$3,COALESCE($4, NOW()),$5,$6,$7,$8,$9,$10,$11,$12,$13::date)
		RETURNING visit_date, created_at`,
		v.ID, v.MotherID, v.CHWID, v.VisitDate, v.SymptomsObserved,
		v.MotherCondition, v.DangerSigns, v.Vitals, v.ReferralNeeded, v.ReferralReason,
		v.EducationProvided, v.Notes, v.NextVisitDate,
	).Scan(&v.VisitDate, &v.CreatedAt)
	return apperr.FromDB(err, "home visit")
}

func (r *visitRepoPG) ListByMother(ctx context.Context, motherID uuid.UUID) ([]*Visit, error) {
	rows, err := connFrom(ctx, r.pool).Query(ctx, `
		SELECT hv.id, hv.mother_id, hv.chw_id, u.full_name, hv.visit_date, hv.symptoms_observed,
			hv.mother_condition, hv.danger_signs, hv.vitals, hv.referral_needed, hv.referral_reason,
			hv.education_provided, hv.notes, to_char(hv.next_visit_date, 'YYYY-MM-DD'), hv.created_at
		FROM home_visits hv
		LEFT JOIN users u ON u.id = hv.chw_id
		WHERE hv.mother_id = $1
		ORDER BY hv.visit_date DESC`, motherID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()
	var items []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.MotherID, &v.CHWID, &v.CHWName, &v.VisitDate, &v.SymptomsObserved,
			&v.MotherCondition, &v.DangerSigns, &v.Vitals, &v.ReferralNeeded, &v.ReferralReason,
			&v.EducationProvided, &v.Notes, &v.NextVisitDate, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.normalize()
		items = append(items, &v)
	}
	return items, rows.Err()
}
