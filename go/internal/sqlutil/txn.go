package sqlutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Run executes fn inside a *sql.Tx bound to a fresh set of queries and
// returns its result. The tx rolls back when fn returns an error or panics,
// else it commits.
func Run[T, R any](
	ctx context.Context,
	db *sql.DB,
	newQueries func(*sql.Tx) *T,
	fn func(q *T) (R, error),
) (result R, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err = fn(newQueries(tx))
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return result, nil
}
