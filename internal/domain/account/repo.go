package account

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	// Exists reports whether any user holds the email or phone. Empty
	// arguments never match.
	Exists(ctx context.Context, email, phone string) (bool, error)
}
