package triage

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	ListByMother(ctx context.Context, motherID uuid.UUID) ([]*Record, error)
}
