package mother

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

type motherRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &motherRepoPG{pool: pool} }

func (r *motherRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const motherCols = `m.id, m.user_id, m.full_name, m.age, m.phone, m.address, m.lga_community,
	m.parity, m.gravidity, m.previous_outcomes, m.pre_existing_conditions,
	m.current_pregnancy_details, m.anc_history, to_char(m.next_appointment, 'YYYY-MM-DD'),
	m.risk_level, m.last_triage_date, m.registered_by, m.device_assigned, m.device_id,
	m.created_at, m.updated_at`

func scanMother(row pgx.Row) (*Mother, error) {
	var m Mother
	err := row.Scan(&m.ID, &m.UserID, &m.FullName, &m.Age, &m.Phone, &m.Address, &m.LGACommunity,
		&m.Parity, &m.Gravidity, &m.PreviousOutcomes, &m.PreExistingConditions,
		&m.CurrentPregnancyDetails, &m.ANCHistory, &m.NextAppointment,
		&m.RiskLevel, &m.LastTriageDate, &m.RegisteredBy, &m.DeviceAssigned, &m.DeviceID,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "mother")
	}
	return &m, nil
}

func (r *motherRepoPG) Create(ctx context.Context, m *Mother) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO mothers (id, user_id, full_name, age, phone, address, lga_community,
			parity, gravidity, previous_outcomes, pre_existing_conditions,
			current_pregnancy_details, anc_history, next_appointment, registered_by,
			device_assigned, device_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14::date,$15,$16,$17)
		RETURNING risk_level, created_at, updated_at`,
		m.ID, m.UserID, m.FullName, m.Age, m.Phone, m.Address, m.LGACommunity,
		m.Parity, m.Gravidity, m.PreviousOutcomes, m.PreExistingConditions,
		m.CurrentPregnancyDetails, m.ANCHistory, m.NextAppointment, m.RegisteredBy,
		m.DeviceID != nil, m.DeviceID,
	).Scan(&m.RiskLevel, &m.CreatedAt, &m.UpdatedAt)
	return apperr.FromDB(err, "mother")
}

func (r *motherRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Mother, error) {
	return scanMother(r.conn(ctx).QueryRow(ctx, `SELECT `+motherCols+` FROM mothers m WHERE m.id = $1`, id))
}

func (r *motherRepoPG) GetByDevice(ctx context.Context, deviceID string) (*Mother, error) {
	return scanMother(r.conn(ctx).QueryRow(ctx,
		`SELECT `+motherCols+` FROM mothers m WHERE m.device_id = $1`, deviceID))
}

func (r *motherRepoPG) Update(ctx context.Context, id uuid.UUID, p *Patch) (*Mother, error) {
	return scanMother(r.conn(ctx).QueryRow(ctx, `
		UPDATE mothers m SET
			full_name = COALESCE($2, m.full_name),
			age = COALESCE($3, m.age),
			phone = COALESCE($4, m.phone),
			address = COALESCE($5, m.address),
			lga_community = COALESCE($6, m.lga_community),
			parity = COALESCE($7, m.parity),
			gravidity = COALESCE($8, m.gravidity),
			previous_outcomes = COALESCE($9, m.previous_outcomes),
			pre_existing_conditions = COALESCE($10, m.pre_existing_conditions),
			current_pregnancy_details = COALESCE($11, m.current_pregnancy_details),
			anc_history = COALESCE($12, m.anc_history),
			next_appointment = COALESCE($13::date, m.next_appointment),
			device_id = COALESCE($14, m.device_id),
			device_assigned = m.device_assigned OR $14::text IS NOT NULL,
			updated_at = NOW()
		WHERE m.id = $1
		RETURNING `+motherCols,
		id, p.FullName, p.Age, p.Phone, p.Address, p.LGACommunity, p.Parity, p.Gravidity,
		p.PreviousOutcomes, p.PreExistingConditions, p.CurrentPregnancyDetails, p.ANCHistory,
		p.NextAppointment, p.DeviceID))
}

func (r *motherRepoPG) UpdateRisk(ctx context.Context, id uuid.UUID, level string, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE mothers SET risk_level = $2, last_triage_date = $3, updated_at = NOW()
		WHERE id = $1`, id, level, at)
	if err != nil {
		return apperr.FromDB(err, "mother")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("mother")
	}
	return nil
}

func (r *motherRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Mother, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list mothers: %w", err)
	}
	defer rows.Close()
	var items []*Mother
	for rows.Next() {
		m, err := scanMother(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *motherRepoPG) List(ctx context.Context, limit, offset int) ([]*Mother, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM mothers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+motherCols+` FROM mothers m
		ORDER BY m.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

const chwScope = `m.registered_by = $1
	OR EXISTS (SELECT 1 FROM chw_assignments ca WHERE ca.mother_id = m.id AND ca.chw_id = $1)`

func (r *motherRepoPG) ListForCHW(ctx context.Context, chwID uuid.UUID, limit, offset int) ([]*Mother, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM mothers m WHERE `+chwScope, chwID).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+motherCols+` FROM mothers m WHERE `+chwScope+`
		ORDER BY m.created_at DESC LIMIT $2 OFFSET $3`, chwID, limit, offset)
	return items, total, err
}

const userLink = `EXISTS (SELECT 1 FROM users u WHERE u.id = $1
	AND (m.user_id = u.id OR (m.phone IS NOT NULL AND m.phone = u.phone)))`

func (r *motherRepoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Mother, error) {
	return r.query(ctx, `SELECT `+motherCols+` FROM mothers m WHERE `+userLink+`
		ORDER BY m.created_at DESC`, userID)
}

func (r *motherRepoPG) IsLinked(ctx context.Context, motherID, userID uuid.UUID) (bool, error) {
	var linked bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM mothers m WHERE m.id = $2 AND `+userLink+`)`,
		userID, motherID).Scan(&linked)
	return linked, err
}

func (r *motherRepoPG) ChangedSince(ctx context.Context, since time.Time) ([]*Mother, error) {
	if since.IsZero() {
		return r.query(ctx, `SELECT `+motherCols+` FROM mothers m ORDER BY m.created_at`)
	}
	return r.query(ctx, `SELECT `+motherCols+` FROM mothers m
		WHERE m.updated_at > $1 OR m.created_at > $1
		ORDER BY m.created_at`, since)
}
