package chw

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/risk"
	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
)

const dateLayout = "2006-01-02"

type Service struct {
	assignments AssignmentRepository
	visits      VisitRepository
}

func NewService(assignments AssignmentRepository, visits VisitRepository) *Service {
	return &Service{assignments: assignments, visits: visits}
}

// AssignFirstCHW puts the mother on a CHW's follow-up list with the given
// risk level as priority.
func (s *Service) AssignFirstCHW(ctx context.Context, motherID uuid.UUID, priority string) (*uuid.UUID, error) {
	if motherID == uuid.Nil {
		return nil, apperr.Invalid("mother_id is required")
	}
	if !risk.Level(priority).Valid() {
		return nil, apperr.Invalid("invalid assignment priority %q", priority)
	}
	return s.assignments.AssignFirst(ctx, motherID, priority)
}

// Assignments returns a CHW's own list by priority, or every assignment for
// facility staff.
func (s *Service) Assignments(ctx context.Context, p auth.Principal) ([]*Assignment, error) {
	if p.Role == auth.RoleCHW {
		return s.assignments.ListForCHW(ctx, p.UserID)
	}
	return s.assignments.ListAll(ctx)
}

// RecordVisit stores a home visit made by chwID.
func (s *Service) RecordVisit(ctx context.Context, v *Visit, chwID uuid.UUID) error {
	if v.MotherID == uuid.Nil {
		return apperr.Invalid("mother_id is required")
	}
	if chwID == uuid.Nil {
		return apperr.Invalid("chw is required")
	}
	if v.NextVisitDate != nil {
		if _, err := time.Parse(dateLayout, *v.NextVisitDate); err != nil {
			return apperr.Invalid("next_visit_date must be a YYYY-MM-DD date")
		}
	}
	if v.ReferralReason != nil && !v.ReferralNeeded {
		v.ReferralNeeded = true
	}
	v.CHWID = chwID
	v.normalize()
	return s.visits.Create(ctx, v)
}

// CreateVisitFromSync records an offline-captured visit and returns the
// server id.
func (s *Service) CreateVisitFromSync(ctx context.Context, data map[string]any, actor uuid.UUID) (uuid.UUID, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, apperr.Invalid("malformed visit payload")
	}
	var v Visit
	if err := json.Unmarshal(raw, &v); err != nil {
		return uuid.Nil, apperr.Invalid("malformed visit payload: %v", err)
	}
	v.ID = uuid.Nil
	if err := s.RecordVisit(ctx, &v, actor); err != nil {
		return uuid.Nil, err
	}
	return v.ID, nil
}

func (s *Service) Visits(ctx context.Context, motherID uuid.UUID) ([]*Visit, error) {
	return s.visits.ListByMother(ctx, motherID)
}
