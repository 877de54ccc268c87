package mother

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Mother) error
	GetByID(ctx context.Context, id uuid.UUID) (*Mother, error)
	GetByDevice(ctx context.Context, deviceID string) (*Mother, error)
	Update(ctx context.Context, id uuid.UUID, p *Patch) (*Mother, error)
	UpdateRisk(ctx context.Context, id uuid.UUID, level string, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]*Mother, int, error)
	// ListForCHW returns mothers assigned to or registered by the CHW.
	ListForCHW(ctx context.Context, chwID uuid.UUID, limit, offset int) ([]*Mother, int, error)
	// ListForUser returns the records linked to a mother's account by user
	// id or phone number.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Mother, error)
	IsLinked(ctx context.Context, motherID, userID uuid.UUID) (bool, error)
	// ChangedSince returns mothers created or updated after since, oldest
	// first. A zero since returns every mother.
	ChangedSince(ctx context.Context, since time.Time) ([]*Mother, error)
}
