package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
	"github.com/natabridge/natabridge/internal/platform/db"
	"github.com/natabridge/natabridge/internal/platform/events"
)

type Service struct {
	repo Repository
	pub  events.Publisher
}

// NewService returns a notification service. pub may be nil, in which case
// notifications are stored but not broadcast.
func NewService(repo Repository, pub events.Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Raise stores n and broadcasts it once the surrounding transaction, if any,
// has committed. A rolled-back notification is never broadcast.
func (s *Service) Raise(ctx context.Context, n *Notification) error {
	if n.Type == "" {
		return apperr.Invalid("notification type is required")
	}
	if n.Title == "" {
		return apperr.Invalid("notification title is required")
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if !validPriority(n.Priority) {
		return apperr.Invalid("invalid notification priority %q", n.Priority)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.pub != nil {
		alert := n.Event()
		db.AfterCommit(ctx, func() {
			_ = s.pub.Publish(context.WithoutCancel(ctx), alert)
		})
	}
	return nil
}

// List returns the caller's notification feed, newest first.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]*Notification, error) {
	switch p.Role {
	case auth.RoleMother:
		return s.repo.ListForMotherUser(ctx, p.UserID, ListLimit)
	case auth.RoleCHW:
		return s.repo.ListForCHW(ctx, p.UserID, ListLimit)
	default:
		return s.repo.ListAll(ctx, ListLimit)
	}
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}
