package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
	"github.com/natabridge/natabridge/internal/platform/events"
)

type mockRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Notification
	// owners maps mother id to the linked user id; assigned maps mother id
	// to the assigned CHW.
	owners   map[uuid.UUID]uuid.UUID
	assigned map[uuid.UUID]uuid.UUID
	seq      int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		records:  make(map[uuid.UUID]*Notification),
		owners:   make(map[uuid.UUID]uuid.UUID),
		assigned: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	n.ID = uuid.New()
	n.CreatedAt = time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
	m.records[n.ID] = n
	return nil
}

func (m *mockRepo) filter(limit int, keep func(*Notification) bool) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.records {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockRepo) ListAll(_ context.Context, limit int) ([]*Notification, error) {
	return m.filter(limit, func(*Notification) bool { return true }), nil
}

func (m *mockRepo) ListForMotherUser(_ context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	return m.filter(limit, func(n *Notification) bool {
		return n.MotherID != nil && m.owners[*n.MotherID] == userID
	}), nil
}

func (m *mockRepo) ListForCHW(_ context.Context, chwID uuid.UUID, limit int) ([]*Notification, error) {
	return m.filter(limit, func(n *Notification) bool {
		if n.TargetRole == nil || *n.TargetRole == auth.RoleCHW {
			return true
		}
		return n.MotherID != nil && m.assigned[*n.MotherID] == chwID
	}), nil
}

func (m *mockRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.records[id]
	if !ok {
		return apperr.NotFound("notification")
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	return nil
}

type recorder struct {
	mu     sync.Mutex
	alerts []events.Alert
}

func (r *recorder) Publish(_ context.Context, a events.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func newTestService() (*Service, *mockRepo, *recorder) {
	repo := newMockRepo()
	rec := &recorder{}
	return NewService(repo, rec), repo, rec
}

func strPtr(s string) *string { return &s }

func TestRaise_StoresAndBroadcasts(t *testing.T) {
	svc, repo, rec := newTestService()
	motherID := uuid.New()
	n := &Notification{
		Type:     TypeEmergencyAlert,
		Title:    "EMERGENCY ALERT",
		Message:  "Emergency alert raised: bleeding",
		MotherID: &motherID,
		Priority: PriorityCritical,
	}
	if err := svc.Raise(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.records[n.ID]; !ok {
		t.Fatal("expected notification to be stored")
	}
	if len(rec.alerts) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(rec.alerts))
	}
	a := rec.alerts[0]
	if a.ID != n.ID || a.Priority != PriorityCritical || a.MotherID == nil || *a.MotherID != motherID {
		t.Errorf("unexpected broadcast %+v", a)
	}
}

func TestRaise_DefaultsPriority(t *testing.T) {
	svc, _, _ := newTestService()
	n := &Notification{Type: TypeVitalAlert, Title: "High Fever"}
	if err := svc.Raise(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Priority != PriorityNormal {
		t.Errorf("expected normal priority, got %s", n.Priority)
	}
}

func TestRaise_Validation(t *testing.T) {
	svc, repo, rec := newTestService()
	tests := []struct {
		name string
		n    *Notification
	}{
		{"missing type", &Notification{Title: "x"}},
		{"missing title", &Notification{Type: TypeVitalAlert}},
		{"bad priority", &Notification{Type: TypeVitalAlert, Title: "x", Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Raise(context.Background(), tt.n)
			if !errors.Is(err, apperr.ErrInvalid) {
				t.Errorf("expected invalid error, got %v", err)
			}
		})
	}
	if len(repo.records) != 0 || len(rec.alerts) != 0 {
		t.Error("expected nothing stored or broadcast")
	}
}

func TestRaise_NilPublisher(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	if err := svc.Raise(context.Background(), &Notification{Type: TypeVitalAlert, Title: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestList_ScopedByRole(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	motherUser, chwUser := uuid.New(), uuid.New()
	own, assigned, other := uuid.New(), uuid.New(), uuid.New()
	repo.owners[own] = motherUser
	repo.assigned[assigned] = chwUser

	for _, n := range []*Notification{
		{Type: TypeVitalAlert, Title: "own", MotherID: &own, TargetRole: strPtr(auth.RoleStaff)},
		{Type: TypeVitalAlert, Title: "assigned", MotherID: &assigned, TargetRole: strPtr(auth.RoleStaff)},
		{Type: TypeVitalAlert, Title: "other", MotherID: &other, TargetRole: strPtr(auth.RoleStaff)},
		{Type: TypeEmergencyAlert, Title: "broadcast", MotherID: &other},
	} {
		if err := svc.Raise(ctx, n); err != nil {
			t.Fatalf("raise: %v", err)
		}
	}

	titles := func(items []*Notification) map[string]bool {
		m := make(map[string]bool)
		for _, n := range items {
			m[n.Title] = true
		}
		return m
	}

	got, _ := svc.List(ctx, auth.Principal{UserID: motherUser, Role: auth.RoleMother})
	if len(got) != 1 || got[0].Title != "own" {
		t.Errorf("mother: unexpected feed %v", titles(got))
	}

	got, _ = svc.List(ctx, auth.Principal{UserID: chwUser, Role: auth.RoleCHW})
	ts := titles(got)
	if len(got) != 2 || !ts["assigned"] || !ts["broadcast"] {
		t.Errorf("chw: unexpected feed %v", ts)
	}

	got, _ = svc.List(ctx, auth.Principal{UserID: uuid.New(), Role: auth.RoleStaff})
	if len(got) != 4 {
		t.Errorf("staff: expected 4, got %d", len(got))
	}
	if got[0].Title != "broadcast" {
		t.Errorf("expected newest first, got %s", got[0].Title)
	}
}

func TestMarkRead(t *testing.T) {
	svc, repo, _ := newTestService()
	n := &Notification{Type: TypeVitalAlert, Title: "x"}
	svc.Raise(context.Background(), n)

	if err := svc.MarkRead(context.Background(), n.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.records[n.ID].IsRead || repo.records[n.ID].ReadAt == nil {
		t.Error("expected notification to be read")
	}
	if err := svc.MarkRead(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
