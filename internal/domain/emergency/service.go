package emergency

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/notification"
	"github.com/natabridge/natabridge/internal/platform/apperr"
)

const referralListLimit = 100

type Notifier interface {
	Raise(ctx context.Context, n *notification.Notification) error
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	alerts    AlertRepository
	referrals ReferralRepository
	transport TransportRepository
	notifier  Notifier
	tx        TxRunner
	now       func() time.Time
}

func NewService(alerts AlertRepository, referrals ReferralRepository, transport TransportRepository,
	notifier Notifier, tx TxRunner) *Service {
	return &Service{
		alerts:    alerts,
		referrals: referrals,
		transport: transport,
		notifier:  notifier,
		tx:        tx,
		now:       time.Now,
	}
}

// -- Alerts --

// RaiseAlert stores an active alert and its critical notification together.
func (s *Service) RaiseAlert(ctx context.Context, a *Alert, createdBy uuid.UUID) error {
	if a.AlertType == "" {
		a.AlertType = "emergency"
	}
	a.Status = StatusActive
	a.ResponderID, a.ResponseNotes, a.ResolvedAt = nil, nil, nil
	if createdBy != uuid.Nil {
		a.CreatedBy = &createdBy
	}

	description := "Immediate attention required"
	if a.Description != nil && strings.TrimSpace(*a.Description) != "" {
		description = *a.Description
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.alerts.Create(ctx, a); err != nil {
			return err
		}
		return s.notifier.Raise(ctx, &notification.Notification{
			Type:     notification.TypeEmergencyAlert,
			Title:    "EMERGENCY ALERT",
			Message:  "Emergency alert raised: " + description,
			MotherID: a.MotherID,
			Priority: notification.PriorityCritical,
		})
	})
}

func (s *Service) ListAlerts(ctx context.Context) ([]*Alert, error) {
	return s.alerts.List(ctx)
}

// UpdateAlert applies a responder's changes. The responder defaults to the
// caller when not given.
func (s *Service) UpdateAlert(ctx context.Context, id uuid.UUID, u AlertUpdate, caller uuid.UUID) error {
	var resolvedAt *time.Time
	if u.Status != nil {
		if !validStatus(*u.Status) {
			return apperr.Invalid("invalid alert status %q", *u.Status)
		}
		if *u.Status == StatusResolved {
			now := s.now().UTC()
			resolvedAt = &now
		}
	}
	if u.ResponderID == nil && caller != uuid.Nil {
		u.ResponderID = &caller
	}
	return s.alerts.Update(ctx, id, u, resolvedAt)
}

// -- Referrals --

func (s *Service) CreateReferral(ctx context.Context, r *Referral, referredBy uuid.UUID) error {
	if r.MotherID == uuid.Nil {
		return apperr.Invalid("mother_id is required")
	}
	if r.Urgency == "" {
		r.Urgency = UrgencyRoutine
	}
	if !validUrgency(r.Urgency) {
		return apperr.Invalid("invalid urgency %q", r.Urgency)
	}
	r.Status = ReferralPending
	r.ReceivedBy, r.Outcome, r.CompletedAt = nil, nil, nil
	if referredBy != uuid.Nil {
		r.ReferredBy = &referredBy
	}
	return s.referrals.Create(ctx, r)
}

func (s *Service) ListReferrals(ctx context.Context) ([]*Referral, error) {
	return s.referrals.List(ctx, referralListLimit)
}

// -- Transport --

func (s *Service) TransportContacts(ctx context.Context) ([]*TransportContact, error) {
	return s.transport.ListActive(ctx)
}
