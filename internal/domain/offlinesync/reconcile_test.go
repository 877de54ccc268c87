package offlinesync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestReconcile_PreservesOrder(t *testing.T) {
	r := NewReconciler("mothers", "home_visits")
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	calls := 0
	insert := func(_ context.Context, table string, data map[string]any) (uuid.UUID, error) {
		calls++
		if data["fail"] == true {
			return uuid.Nil, errors.New("full_name is required")
		}
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
	want0, want2 := ids[0], ids[1]

	results, err := r.Reconcile(context.Background(), []Item{
		{LocalID: float64(1), Table: "mothers", Action: "create", Data: map[string]any{}},
		{LocalID: "abc", Table: "mothers", Action: "create", Data: map[string]any{"fail": true}},
		{LocalID: float64(3), Table: "home_visits", Action: "create", Data: map[string]any{}},
		{LocalID: float64(4), Table: "triage_records", Action: "create"},
		{LocalID: float64(5), Table: "mothers", Action: "update"},
	}, insert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 inserts, got %d", calls)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	wantOutcomes := []Outcome{OutcomeSuccess, OutcomeFailed, OutcomeSuccess, OutcomeSkipped, OutcomeSkipped}
	for i, o := range wantOutcomes {
		if results[i].Outcome != o {
			t.Errorf("result %d: expected %s, got %s", i, o, results[i].Outcome)
		}
	}
	if *results[0].ServerID != want0 || *results[2].ServerID != want2 {
		t.Error("expected server ids in input order")
	}
	if results[1].LocalID != "abc" || results[1].Error != "full_name is required" || results[1].ServerID != nil {
		t.Errorf("unexpected failure result %+v", results[1])
	}
	if results[3].Reason == "" || results[4].Reason == "" {
		t.Error("expected skipped items to carry a reason")
	}
}

func TestReconcile_EmptyBatch(t *testing.T) {
	results, err := NewReconciler("mothers").Reconcile(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
}

func TestReconcile_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReconciler("mothers").Reconcile(ctx, []Item{{Table: "mothers", Action: "create"}},
		func(context.Context, string, map[string]any) (uuid.UUID, error) {
			t.Fatal("insert must not run")
			return uuid.Nil, nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
