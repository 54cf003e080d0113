package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

type sessionRepo struct {
	db sqlx.ExtContext
}

type sessionRow struct {
	ID              string  `db:"id"`
	Date            string  `db:"date"`
	Status          string  `db:"status"`
	GrammarAccuracy float64 `db:"grammar_accuracy"`
	Data            []byte  `db:"data"`
	CreatedAt       int64   `db:"created_at"`
	UpdatedAt       int64   `db:"updated_at"`
}

func (r sessionRow) record() SessionRecord {
	return SessionRecord{
		ID:              r.ID,
		Date:            r.Date,
		Status:          SessionStatus(r.Status),
		GrammarAccuracy: r.GrammarAccuracy,
		Data:            r.Data,
		CreatedAt:       time.UnixMilli(r.CreatedAt),
		UpdatedAt:       time.UnixMilli(r.UpdatedAt),
	}
}

var sessionCols = []string{"id", "date", "status", "grammar_accuracy", "data", "created_at", "updated_at"}

func (r *sessionRepo) sessionFor(ctx context.Context, date string, status SessionStatus) (*SessionRecord, error) {
	query, args := builder().
		Select(sessionCols...).
		From(entsql.Table(tableSessions)).
		Where(entsql.And(
			entsql.EQ("date", date),
			entsql.EQ("status", string(status)),
		)).
		Query()

	var row sessionRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s session for %s: %w", status, date, err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *sessionRepo) OpenSessionForDate(ctx context.Context, date string) (*SessionRecord, error) {
	return r.sessionFor(ctx, date, SessionOpen)
}

func (r *sessionRepo) CompletedSessionForDate(ctx context.Context, date string) (*SessionRecord, error) {
	return r.sessionFor(ctx, date, SessionCompleted)
}

func (r *sessionRepo) SaveSession(ctx context.Context, rec *SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("save session: missing id")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query, args := builder().
		Insert(tableSessions).
		Columns(sessionCols...).
		Values(rec.ID, rec.Date, string(rec.Status), rec.GrammarAccuracy, rec.Data,
			rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("status")
				u.SetExcluded("grammar_accuracy")
				u.SetExcluded("data")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *sessionRepo) RecentCompleted(ctx context.Context, limit int) ([]SessionRecord, error) {
	sel := builder().
		Select(sessionCols...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("status", string(SessionCompleted))).
		OrderBy(entsql.Desc("date"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows []sessionRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	out := make([]SessionRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}
