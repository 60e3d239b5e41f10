package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFunc is executed inside a transaction scope.
type TxFunc func(pgx.Tx) error

// TxBeginner starts transactions. *pgxpool.Pool satisfies it; tests can
// substitute an in-memory implementation.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ TxBeginner = (*pgxpool.Pool)(nil)

// WithTransaction wraps fn in a transaction.
// Auto rollback on error or panic, auto commit on success.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn TxFunc) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			tx.Rollback(ctx)
		}
	}()

	err = fn(tx)
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithSavepoint runs fn inside a nested transaction on tx.
// pgx maps nested Begin calls to SAVEPOINT, so a failed fn rolls back only
// the statements issued inside fn and the outer transaction stays usable.
func WithSavepoint(ctx context.Context, tx pgx.Tx, fn TxFunc) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(sp); err != nil {
		sp.Rollback(ctx)
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}

	return nil
}
