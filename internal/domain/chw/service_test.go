package chw

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
)

type mockAssignmentRepo struct {
	chws    []uuid.UUID
	records map[uuid.UUID]*Assignment
}

func newMockAssignmentRepo(chws ...uuid.UUID) *mockAssignmentRepo {
	return &mockAssignmentRepo{chws: chws, records: make(map[uuid.UUID]*Assignment)}
}

func (m *mockAssignmentRepo) AssignFirst(_ context.Context, motherID uuid.UUID, priority string) (*uuid.UUID, error) {
	if len(m.chws) == 0 {
		return nil, nil
	}
	if a, ok := m.records[motherID]; ok {
		a.Priority = priority
		return a.CHWID, nil
	}
	chw := m.chws[0]
	m.records[motherID] = &Assignment{
		ID: uuid.New(), MotherID: motherID, CHWID: &chw, Priority: priority,
		AssignedAt: time.Now().Add(time.Duration(len(m.records)) * time.Second),
	}
	return &chw, nil
}

var priorityRank = map[string]int{"emergency": 1, "high_risk": 2, "caution": 3}

func rank(p string) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return 4
}

func (m *mockAssignmentRepo) ListForCHW(_ context.Context, chwID uuid.UUID) ([]*Assignment, error) {
	var out []*Assignment
	for _, a := range m.records {
		if a.CHWID != nil && *a.CHWID == chwID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return rank(out[i].Priority) < rank(out[j].Priority) })
	return out, nil
}

func (m *mockAssignmentRepo) ListAll(_ context.Context) ([]*Assignment, error) {
	var out []*Assignment
	for _, a := range m.records {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

type mockVisitRepo struct {
	records map[uuid.UUID]*Visit
}

func (m *mockVisitRepo) Create(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	if v.VisitDate == nil {
		now := time.Now()
		v.VisitDate = &now
	}
	v.CreatedAt = time.Now()
	m.records[v.ID] = v
	return nil
}

func (m *mockVisitRepo) ListByMother(_ context.Context, motherID uuid.UUID) ([]*Visit, error) {
	var out []*Visit
	for _, v := range m.records {
		if v.MotherID == motherID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.After(*out[j].VisitDate) })
	return out, nil
}

func newTestService(chws ...uuid.UUID) (*Service, *mockAssignmentRepo, *mockVisitRepo) {
	ar := newMockAssignmentRepo(chws...)
	vr := &mockVisitRepo{records: make(map[uuid.UUID]*Visit)}
	return NewService(ar, vr), ar, vr
}

func TestAssignFirstCHW(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	svc, ar, _ := newTestService(first, second)
	ctx := context.Background()
	motherID := uuid.New()

	got, err := svc.AssignFirstCHW(ctx, motherID, "high_risk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != first {
		t.Errorf("expected first CHW, got %v", got)
	}

	if _, err := svc.AssignFirstCHW(ctx, motherID, "emergency"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ar.records) != 1 {
		t.Errorf("expected one assignment per mother, got %d", len(ar.records))
	}
	if ar.records[motherID].Priority != "emergency" {
		t.Errorf("expected priority refresh, got %s", ar.records[motherID].Priority)
	}
}

func TestAssignFirstCHW_NoCHW(t *testing.T) {
	svc, _, _ := newTestService()
	got, err := svc.AssignFirstCHW(context.Background(), uuid.New(), "high_risk")
	if err != nil || got != nil {
		t.Errorf("expected no assignment, got %v, %v", got, err)
	}
}

func TestAssignFirstCHW_Validation(t *testing.T) {
	svc, _, _ := newTestService(uuid.New())
	if _, err := svc.AssignFirstCHW(context.Background(), uuid.Nil, "high_risk"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for nil mother, got %v", err)
	}
	if _, err := svc.AssignFirstCHW(context.Background(), uuid.New(), "critical"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for bad priority, got %v", err)
	}
}

func TestAssignments_ByRole(t *testing.T) {
	chw := uuid.New()
	svc, _, _ := newTestService(chw)
	ctx := context.Background()
	for _, p := range []string{"caution", "emergency", "normal", "high_risk"} {
		svc.AssignFirstCHW(ctx, uuid.New(), p)
	}

	own, _ := svc.Assignments(ctx, auth.Principal{UserID: chw, Role: auth.RoleCHW})
	want := []string{"emergency", "high_risk", "caution", "normal"}
	for i, a := range own {
		if a.Priority != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.Priority)
		}
	}

	other, _ := svc.Assignments(ctx, auth.Principal{UserID: uuid.New(), Role: auth.RoleCHW})
	if len(other) != 0 {
		t.Errorf("expected no assignments for another CHW, got %d", len(other))
	}
	all, _ := svc.Assignments(ctx, auth.Principal{UserID: uuid.New(), Role: auth.RoleStaff})
	if len(all) != 4 {
		t.Errorf("expected 4 for staff, got %d", len(all))
	}
}

func TestRecordVisit(t *testing.T) {
	svc, _, vr := newTestService()
	chw := uuid.New()
	reason := "persistent headache"
	v := &Visit{MotherID: uuid.New(), ReferralReason: &reason}
	if err := svc.RecordVisit(context.Background(), v, chw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := vr.records[v.ID]
	if stored.CHWID != chw {
		t.Error("expected the caller to be the visiting CHW")
	}
	if !stored.ReferralNeeded {
		t.Error("expected a referral reason to imply referral_needed")
	}
	if stored.SymptomsObserved == nil || stored.Vitals == nil {
		t.Error("expected JSON columns to default to empty values")
	}
}

func TestRecordVisit_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	bad := "next week"
	if err := svc.RecordVisit(context.Background(), &Visit{}, uuid.New()); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for missing mother, got %v", err)
	}
	if err := svc.RecordVisit(context.Background(), &Visit{MotherID: uuid.New(), NextVisitDate: &bad}, uuid.New()); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for bad date, got %v", err)
	}
}

func TestCreateVisitFromSync(t *testing.T) {
	svc, _, vr := newTestService()
	motherID := uuid.New()
	id, err := svc.CreateVisitFromSync(context.Background(), map[string]any{
		"mother_id":         motherID.String(),
		"visit_date":        "2024-03-05T10:00:00Z",
		"symptoms_observed": []any{"fever"},
		"vitals":            map[string]any{"temperature": 38.2},
		"next_visit_date":   "2024-03-12",
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := vr.records[id]
	if v.MotherID != motherID || len(v.SymptomsObserved) != 1 {
		t.Errorf("unexpected visit %+v", v)
	}
	if v.VisitDate.Day() != 5 {
		t.Errorf("expected client visit date to be kept, got %v", v.VisitDate)
	}

	if _, err := svc.CreateVisitFromSync(context.Background(), map[string]any{"mother_id": "nope"}, uuid.New()); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for bad mother id, got %v", err)
	}
}
