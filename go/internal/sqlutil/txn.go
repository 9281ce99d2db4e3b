package sqlutil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
)

// Run executes fn inside a *sql.Tx bound to a fresh set of queries.
// The transaction rolls back when fn returns an error and commits otherwise.
func Run[T any](
	ctx context.Context,
	db *sql.DB,
	newQueries func(*sql.Tx) *T,
	fn func(q *T) error,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(newQueries(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}
	return tx.Commit()
}
