package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	ProgressRepo() ProgressRepo
	SessionRepo() SessionRepo
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

type txRepos struct {
	ext sqlx.ExtContext
}

func (t txRepos) ProgressRepo() ProgressRepo {
	return &progressRepo{db: t.ext}
}

func (t txRepos) SessionRepo() SessionRepo {
	return &sessionRepo{db: t.ext}
}

// WithTx runs fn with progress and session repositories that share one
// transaction. The event log is not part of it: sequence numbers are
// drawn on their own connection, so append events after WithTx returns.
func (s *Store) WithTx(ctx context.Context, fn func(Tx) error) error {
	return inTx(ctx, s.db, func(ext sqlx.ExtContext) error {
		return fn(txRepos{ext: ext})
	})
}

// inTx runs fn in a new transaction, or directly on ext when ext already
// is one.
func inTx(ctx context.Context, ext sqlx.ExtContext, fn func(sqlx.ExtContext) error) error {
	db, ok := ext.(*sqlx.DB)
	if !ok {
		return fn(ext)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
