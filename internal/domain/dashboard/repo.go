package dashboard

import (
	"context"
	"time"
)

// Repository runs the read-only aggregate queries behind the dashboard.
type Repository interface {
	CountMothers(ctx context.Context) (int, error)
	RiskBreakdown(ctx context.Context) (map[string]int, error)
	ActiveEmergencies(ctx context.Context) (int, error)
	MissedANC(ctx context.Context, today time.Time) (int, error)
	FollowupProgress(ctx context.Context) (Followup, error)
	ReferralStats(ctx context.Context) (map[string]int, error)
	RegistrationsSince(ctx context.Context, since time.Time) ([]DayCount, error)
	HighRisk(ctx context.Context) ([]*HighRiskMother, error)
}
