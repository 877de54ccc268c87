package chw

import (
	"context"

	"github.com/google/uuid"
)

type AssignmentRepository interface {
	// AssignFirst assigns the mother to the longest-serving active CHW, or
	// refreshes the priority of her existing assignment. It returns nil when
	// no CHW exists.
	AssignFirst(ctx context.Context, motherID uuid.UUID, priority string) (*uuid.UUID, error)
	ListForCHW(ctx context.Context, chwID uuid.UUID) ([]*Assignment, error)
	ListAll(ctx context.Context) ([]*Assignment, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v *Visit) error
	ListByMother(ctx context.Context, motherID uuid.UUID) ([]*Visit, error)
}
