// Package offlinesync applies records collected offline by mobile clients
// and serves the data they need to work offline.
package offlinesync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ActionCreate is the only action the reconciler applies.
const ActionCreate = "create"

// Outcome classifies one reconciled item.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Item is one client-local record awaiting a server id.
type Item struct {
	LocalID any            `json:"local_id"`
	Table   string         `json:"table"`
	Action  string         `json:"action"`
	Data    map[string]any `json:"data"`
}

// Result is the outcome of one Item. ServerID is set on success, Error on
// failure and Reason when the item was skipped.
type Result struct {
	LocalID  any        `json:"local_id"`
	Outcome  Outcome    `json:"outcome"`
	ServerID *uuid.UUID `json:"server_id,omitempty"`
	Error    string     `json:"error,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// InsertFunc persists one record and returns its server id.
type InsertFunc func(ctx context.Context, table string, data map[string]any) (uuid.UUID, error)

// Reconciler maps client batches to server ids. It holds no mutable state.
type Reconciler struct {
	tables map[string]struct{}
}

// NewReconciler accepts create actions on the given tables only.
func NewReconciler(tables ...string) *Reconciler {
	r := &Reconciler{tables: make(map[string]struct{}, len(tables))}
	for _, t := range tables {
		r.tables[t] = struct{}{}
	}
	return r
}

// Reconcile applies batch in order and returns one result per item in the
// same order. A failing insert only fails its own item. The batch itself
// fails only when ctx is already done before the first item.
func (r *Reconciler) Reconcile(ctx context.Context, batch []Item, insert InsertFunc) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sync batch not started: %w", err)
	}
	results := make([]Result, 0, len(batch))
	for _, item := range batch {
		res := Result{LocalID: item.LocalID}
		_, known := r.tables[item.Table]
		switch {
		case item.Action != ActionCreate:
			res.Outcome = OutcomeSkipped
			res.Reason = fmt.Sprintf("unsupported action %q", item.Action)
		case !known:
			res.Outcome = OutcomeSkipped
			res.Reason = fmt.Sprintf("unsupported table %q", item.Table)
		default:
			id, err := insert(ctx, item.Table, item.Data)
			if err != nil {
				res.Outcome = OutcomeFailed
				res.Error = err.Error()
			} else {
				res.Outcome = OutcomeSuccess
				res.ServerID = &id
			}
		}
		results = append(results, res)
	}
	return results, nil
}
