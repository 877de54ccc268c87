package emergency

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

func connFrom(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Alert Repository ===========

type alertRepoPG struct{ pool *pgxpool.Pool }

func NewAlertRepoPG(pool *pgxpool.Pool) AlertRepository {
	return &alertRepoPG{pool: pool}
}

func (r *alertRepoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	err := connFrom(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO emergency_alerts (id, mother_id, alert_type, description,
			location_lat, location_lng, location_address, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		a.ID, a.MotherID, a.AlertType, a.Description,
		a.LocationLat, a.LocationLng, a.LocationAddress, a.Status, a.CreatedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return apperr.FromDB(err, "emergency alert")
	}
	return nil
}

func (r *alertRepoPG) List(ctx context.Context) ([]*Alert, error) {
	rows, err := connFrom(ctx, r.pool).Query(ctx, `
		SELECT ea.id, ea.mother_id, ea.alert_type, ea.description,
			ea.location_lat, ea.location_lng, ea.location_address, ea.status,
			ea.responder_id, ea.response_notes, ea.created_by, ea.created_at, ea.resolved_at,
			m.full_name, m.phone, m.address
		FROM emergency_alerts ea
		LEFT JOIN mothers m ON m.id = ea.mother_id
		ORDER BY ea.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list emergency alerts: %w", err)
	}
	defer rows.Close()
	var items []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.MotherID, &a.AlertType, &a.Description,
			&a.LocationLat, &a.LocationLng, &a.LocationAddress, &a.Status,
			&a.ResponderID, &a.ResponseNotes, &a.CreatedBy, &a.CreatedAt, &a.ResolvedAt,
			&a.MotherName, &a.MotherPhone, &a.MotherAddress); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

// Update changes resolved_at only when a status is given: it is set for
// resolved and cleared for any other status.
func (r *alertRepoPG) Update(ctx context.Context, id uuid.UUID, u AlertUpdate, resolvedAt *time.Time) error {
	tag, err := connFrom(ctx, r.pool).Exec(ctx, `
		UPDATE emergency_alerts SET
			status = COALESCE($2, status),
			responder_id = COALESCE($3, responder_id),
			response_notes = COALESCE($4, response_notes),
			resolved_at = CASE WHEN $2::text IS NULL THEN resolved_at ELSE $5 END
		WHERE id = $1`,
		id, u.Status, u.ResponderID, u.ResponseNotes, resolvedAt)
	if err != nil {
		return apperr.FromDB(err, "emergency alert")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("emergency alert")
	}
	return nil
}

// =========== Referral Repository ===========

type referralRepoPG struct{ pool *pgxpool.Pool }

func NewReferralRepoPG(pool *pgxpool.Pool) ReferralRepository {
	return &referralRepoPG{pool: pool}
}

const referralCols = `id, mother_id, from_facility, to_facility, reason, urgency,
	clinical_notes, transport_arranged, transport_type, transport_contact, status,
	referred_by, received_by, outcome, created_at, completed_at`

func (r *referralRepoPG) Create(ctx context.Context, ref *Referral) error {
	ref.ID = uuid.New()
	err := connFrom(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO referrals (id, mother_id, from_facility, to_facility, reason, urgency,
			clinical_notes, transport_arranged, transport_type, transport_contact, status, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		ref.ID, ref.MotherID, ref.FromFacility, ref.ToFacility, ref.Reason, ref.Urgency,
		ref.ClinicalNotes, ref.TransportArranged, ref.TransportType, ref.TransportContact,
		ref.Status, ref.ReferredBy,
	).Scan(&ref.CreatedAt)
	if err != nil {
		return apperr.FromDB(err, "referral")
	}
	return nil
}

func (r *referralRepoPG) List(ctx context.Context, limit int) ([]*Referral, error) {
	rows, err := connFrom(ctx, r.pool).Query(ctx,
		`SELECT `+referralCols+` FROM referrals ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()
	var items []*Referral
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(&ref.ID, &ref.MotherID, &ref.FromFacility, &ref.ToFacility,
			&ref.Reason, &ref.Urgency, &ref.ClinicalNotes, &ref.TransportArranged,
			&ref.TransportType, &ref.TransportContact, &ref.Status, &ref.ReferredBy,
			&ref.ReceivedBy, &ref.Outcome, &ref.CreatedAt, &ref.CompletedAt); err != nil {
			return nil, err
		}
		items = append(items, &ref)
	}
	return items, rows.Err()
}

// =========== Transport Repository ===========

type transportRepoPG struct{ pool *pgxpool.Pool }

func NewTransportRepoPG(pool *pgxpool.Pool) TransportRepository {
	return &transportRepoPG{pool: pool}
}

func (r *transportRepoPG) ListActive(ctx context.Context) ([]*TransportContact, error) {
	rows, err := connFrom(ctx, r.pool).Query(ctx, `
		SELECT id, name, type, phone, alternate_phone, lga_community, vehicle_type,
			availability, is_active, created_at
		FROM transport_contacts WHERE is_active
		ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list transport contacts: %w", err)
	}
	defer rows.Close()
	var items []*TransportContact
	for rows.Next() {
		var t TransportContact
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.Phone, &t.AlternatePhone,
			&t.LGACommunity, &t.VehicleType, &t.Availability, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}
