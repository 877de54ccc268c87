package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const DBTxKey contextKey = "db_tx"

// ErrNoBeginner is returned by InTx when the Transactor has no pool.
var ErrNoBeginner = errors.New("no database connection available")

// Beginner starts a transaction. *pgxpool.Pool and pgx.Tx both satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txState struct {
	tx     pgx.Tx
	parent *txState
	hooks  []func()
}

// TxFromContext returns the transaction carried by ctx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	if st, ok := ctx.Value(DBTxKey).(*txState); ok && st != nil {
		return st.tx
	}
	return nil
}

// Transactor runs units of work in a database transaction. Repositories pick
// the transaction up through TxFromContext.
type Transactor struct {
	pool Beginner
}

func NewTransactor(pool Beginner) *Transactor {
	return &Transactor{pool: pool}
}

// InTx runs fn inside a transaction. When ctx already carries one, fn runs in
// a savepoint of it, so a failing fn only undoes its own work. Hooks
// registered with AfterCommit run once the outermost transaction commits.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	parent, _ := ctx.Value(DBTxKey).(*txState)

	var (
		tx  pgx.Tx
		err error
	)
	switch {
	case parent != nil:
		tx, err = parent.tx.Begin(ctx)
	case t == nil || t.pool == nil:
		return ErrNoBeginner
	default:
		tx, err = t.pool.Begin(ctx)
	}
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	st := &txState{tx: tx, parent: parent}
	if err := fn(context.WithValue(ctx, DBTxKey, st)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if parent != nil {
		parent.hooks = append(parent.hooks, st.hooks...)
		return nil
	}
	for _, h := range st.hooks {
		h()
	}
	return nil
}

// AfterCommit defers fn until the transaction in ctx commits. Without a
// transaction fn runs immediately. Hooks of a rolled-back savepoint are dropped.
func AfterCommit(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(DBTxKey).(*txState); ok && st != nil {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn()
}
