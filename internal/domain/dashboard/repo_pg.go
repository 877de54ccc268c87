package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natabridge/natabridge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type dashboardRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &dashboardRepoPG{pool: pool}
}

func (r *dashboardRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *dashboardRepoPG) count(ctx context.Context, what, sql string, args ...interface{}) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", what, err)
	}
	return n, nil
}

func (r *dashboardRepoPG) groupCount(ctx context.Context, what, sql string) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", what, err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (r *dashboardRepoPG) CountMothers(ctx context.Context) (int, error) {
	return r.count(ctx, "mothers", `SELECT COUNT(*) FROM mothers`)
}

func (r *dashboardRepoPG) RiskBreakdown(ctx context.Context) (map[string]int, error) {
	return r.groupCount(ctx, "risk levels", `SELECT risk_level, COUNT(*) FROM mothers GROUP BY risk_level`)
}

func (r *dashboardRepoPG) ActiveEmergencies(ctx context.Context) (int, error) {
	return r.count(ctx, "active emergencies", `SELECT COUNT(*) FROM emergency_alerts WHERE status = 'active'`)
}

func (r *dashboardRepoPG) MissedANC(ctx context.Context, today time.Time) (int, error) {
	return r.count(ctx, "missed anc",
		`SELECT COUNT(*) FROM mothers WHERE next_appointment IS NOT NULL AND next_appointment < $1::date`,
		today.Format("2006-01-02"))
}

// FollowupProgress counts assigned mothers and those visited after their
// assignment.
func (r *dashboardRepoPG) FollowupProgress(ctx context.Context) (Followup, error) {
	var f Followup
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(DISTINCT ca.mother_id),
			COUNT(DISTINCT CASE WHEN hv.id IS NOT NULL THEN ca.mother_id END)
		FROM chw_assignments ca
		LEFT JOIN home_visits hv ON hv.mother_id = ca.mother_id AND hv.created_at > ca.assigned_at`,
	).Scan(&f.Assigned, &f.Visited)
	if err != nil {
		return f, fmt.Errorf("followup progress: %w", err)
	}
	return f, nil
}

func (r *dashboardRepoPG) ReferralStats(ctx context.Context) (map[string]int, error) {
	return r.groupCount(ctx, "referrals", `SELECT status, COUNT(*) FROM referrals GROUP BY status`)
}

func (r *dashboardRepoPG) RegistrationsSince(ctx context.Context, since time.Time) ([]DayCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT to_char(DATE(created_at), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM mothers
		WHERE created_at > $1
		GROUP BY day
		ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("recent registrations: %w", err)
	}
	defer rows.Close()
	var out []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *dashboardRepoPG) HighRisk(ctx context.Context) ([]*HighRiskMother, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.id, m.full_name, m.phone, m.address, m.lga_community, m.risk_level,
			to_char(m.next_appointment, 'YYYY-MM-DD'), t.risk_score, t.created_at
		FROM mothers m
		LEFT JOIN LATERAL (
			SELECT risk_score, created_at FROM triage_records
			WHERE mother_id = m.id
			ORDER BY created_at DESC
			LIMIT 1
		) t ON true
		WHERE m.risk_level IN ('high_risk', 'emergency')
		ORDER BY CASE m.risk_level WHEN 'emergency' THEN 1 ELSE 2 END,
			t.created_at DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("high risk mothers: %w", err)
	}
	defer rows.Close()
	var out []*HighRiskMother
	for rows.Next() {
		var h HighRiskMother
		if err := rows.Scan(&h.ID, &h.FullName, &h.Phone, &h.Address, &h.LGACommunity,
			&h.RiskLevel, &h.NextAppointment, &h.RiskScore, &h.LastAssessment); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
