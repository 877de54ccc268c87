package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListAll(ctx context.Context, limit int) ([]*Notification, error)
	// ListForMotherUser returns notifications about the mother record linked
	// to the user, by user id or phone number.
	ListForMotherUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	// ListForCHW returns notifications about mothers assigned to the CHW plus
	// those targeted at CHWs or at nobody in particular.
	ListForCHW(ctx context.Context, chwID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}
