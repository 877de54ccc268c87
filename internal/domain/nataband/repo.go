package nataband

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Reading) error
	ListByMother(ctx context.Context, motherID uuid.UUID, limit int) ([]*Reading, error)
}
