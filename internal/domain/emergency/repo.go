package emergency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AlertRepository interface {
	Create(ctx context.Context, a *Alert) error
	List(ctx context.Context) ([]*Alert, error)
	Update(ctx context.Context, id uuid.UUID, u AlertUpdate, resolvedAt *time.Time) error
}

type ReferralRepository interface {
	Create(ctx context.Context, r *Referral) error
	List(ctx context.Context, limit int) ([]*Referral, error)
}

type TransportRepository interface {
	ListActive(ctx context.Context) ([]*TransportContact, error)
}
