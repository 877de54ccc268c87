package mother

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validDate(s *string) bool {
	if s == nil {
		return true
	}
	_, err := time.Parse(DateLayout, *s)
	return err == nil
}

func nonNegative(p *int) bool { return p == nil || *p >= 0 }

// Register stores a new mother on behalf of actor.
func (s *Service) Register(ctx context.Context, m *Mother, actor uuid.UUID) error {
	m.FullName = strings.TrimSpace(m.FullName)
	if m.FullName == "" {
		return apperr.Invalid("full_name is required")
	}
	if !nonNegative(m.Age) || m.Parity < 0 || m.Gravidity < 0 {
		return apperr.Invalid("age, parity and gravidity must not be negative")
	}
	if !validDate(m.NextAppointment) {
		return apperr.Invalid("next_appointment must be a YYYY-MM-DD date")
	}
	if actor != uuid.Nil {
		m.RegisteredBy = &actor
	}
	return s.repo.Create(ctx, m)
}

// CreateFromSync registers a mother from an offline-captured payload and
// returns the server id.
func (s *Service) CreateFromSync(ctx context.Context, data map[string]any, actor uuid.UUID) (uuid.UUID, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, apperr.Invalid("malformed mother payload")
	}
	var m Mother
	if err := json.Unmarshal(raw, &m); err != nil {
		return uuid.Nil, apperr.Invalid("malformed mother payload: %v", err)
	}
	// Server-owned fields are never taken from the client.
	m.ID, m.UserID, m.RiskLevel, m.LastTriageDate = uuid.Nil, nil, "", nil
	if err := s.Register(ctx, &m, actor); err != nil {
		return uuid.Nil, err
	}
	return m.ID, nil
}

// Get returns a mother. A caller with the mother role may only read a
// record linked to their own account.
func (s *Service) Get(ctx context.Context, id uuid.UUID, p auth.Principal) (*Mother, error) {
	if p.Role == auth.RoleMother {
		linked, err := s.repo.IsLinked(ctx, id, p.UserID)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, apperr.Forbidden("access denied")
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p *Patch) (*Mother, error) {
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		return nil, apperr.Invalid("full_name must not be empty")
	}
	if !nonNegative(p.Age) || !nonNegative(p.Parity) || !nonNegative(p.Gravidity) {
		return nil, apperr.Invalid("age, parity and gravidity must not be negative")
	}
	if !validDate(p.NextAppointment) {
		return nil, apperr.Invalid("next_appointment must be a YYYY-MM-DD date")
	}
	return s.repo.Update(ctx, id, p)
}

// List returns the mothers visible to the caller, newest first.
func (s *Service) List(ctx context.Context, p auth.Principal, limit, offset int) ([]*Mother, int, error) {
	switch p.Role {
	case auth.RoleMother:
		items, err := s.repo.ListForUser(ctx, p.UserID)
		return items, len(items), err
	case auth.RoleCHW:
		return s.repo.ListForCHW(ctx, p.UserID, limit, offset)
	default:
		return s.repo.List(ctx, limit, offset)
	}
}

func (s *Service) ChangedSince(ctx context.Context, since time.Time) ([]*Mother, error) {
	return s.repo.ChangedSince(ctx, since)
}

// UpdateRisk records the outcome of the latest triage on the mother.
func (s *Service) UpdateRisk(ctx context.Context, id uuid.UUID, level string, at time.Time) error {
	return s.repo.UpdateRisk(ctx, id, level, at)
}

// ResolveDevice returns the mother wearing deviceID.
func (s *Service) ResolveDevice(ctx context.Context, deviceID string) (*Mother, error) {
	if deviceID == "" {
		return nil, apperr.Invalid("device_id is required")
	}
	return s.repo.GetByDevice(ctx, deviceID)
}

func (s *Service) IsLinked(ctx context.Context, motherID, userID uuid.UUID) (bool, error) {
	return s.repo.IsLinked(ctx, motherID, userID)
}
