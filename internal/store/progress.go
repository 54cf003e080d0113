package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// progressRepo implements ProgressRepo. Statements are built with ent's SQL
// builder and executed through sqlx.
type progressRepo struct {
	db sqlx.ExtContext
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

type userProgressRow struct {
	LessonID          int    `db:"lesson_id"`
	GrammarIndex      int    `db:"grammar_index"`
	Level             int    `db:"level"`
	StreakDays        int    `db:"streak_days"`
	LastCompletedDate string `db:"last_completed_date"`
}

type grammarStateRow struct {
	GrammarID    int           `db:"grammar_id"`
	Mastery      int           `db:"mastery"`
	NextReviewAt sql.NullInt64 `db:"next_review_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

func (r grammarStateRow) state() GrammarState {
	return GrammarState{
		GrammarID:    r.GrammarID,
		Mastery:      r.Mastery,
		NextReviewAt: fromMillis(r.NextReviewAt),
		UpdatedAt:    time.UnixMilli(r.UpdatedAt),
	}
}

type vocabStateRow struct {
	VocabID          int           `db:"vocab_id"`
	Strength         int           `db:"strength"`
	LastSeenAt       sql.NullInt64 `db:"last_seen_at"`
	NextReviewAt     sql.NullInt64 `db:"next_review_at"`
	Blocking         bool          `db:"blocking"`
	WrongCount       int           `db:"wrong_count"`
	WrongWindowStart sql.NullInt64 `db:"wrong_window_start"`
}

func (r vocabStateRow) state() VocabState {
	return VocabState{
		VocabID:          r.VocabID,
		Strength:         r.Strength,
		LastSeenAt:       fromMillis(r.LastSeenAt),
		NextReviewAt:     fromMillis(r.NextReviewAt),
		Blocking:         r.Blocking,
		WrongCount:       r.WrongCount,
		WrongWindowStart: fromMillis(r.WrongWindowStart),
	}
}

var (
	grammarStateCols = []string{"grammar_id", "mastery", "next_review_at", "updated_at"}
	vocabStateCols   = []string{"vocab_id", "strength", "last_seen_at", "next_review_at", "blocking", "wrong_count", "wrong_window_start"}
)

func (r *progressRepo) UserProgress(ctx context.Context) (UserProgress, error) {
	query, args := builder().
		Select("lesson_id", "grammar_index", "level", "streak_days", "last_completed_date").
		From(entsql.Table(tableUserProgress)).
		Where(entsql.EQ("id", 1)).
		Query()

	var row userProgressRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultUserProgress(), nil
		}
		return UserProgress{}, fmt.Errorf("query user progress: %w", err)
	}
	return UserProgress{
		CurrentLessonID:     row.LessonID,
		CurrentGrammarIndex: row.GrammarIndex,
		CurrentLevel:        row.Level,
		StreakDays:          row.StreakDays,
		LastCompletedDate:   row.LastCompletedDate,
	}, nil
}

func (r *progressRepo) UpdateUserProgress(ctx context.Context, u ProgressUpdate) error {
	cur, err := r.UserProgress(ctx)
	if err != nil {
		return err
	}
	if u.LessonID != nil {
		cur.CurrentLessonID = *u.LessonID
	}
	if u.GrammarIndex != nil {
		cur.CurrentGrammarIndex = *u.GrammarIndex
	}
	if u.Level != nil {
		cur.CurrentLevel = *u.Level
	}
	if u.StreakDays != nil {
		cur.StreakDays = *u.StreakDays
	}
	if u.LastCompletedDate != nil {
		cur.LastCompletedDate = *u.LastCompletedDate
	}

	query, args := builder().
		Insert(tableUserProgress).
		Columns("id", "lesson_id", "grammar_index", "level", "streak_days", "last_completed_date").
		Values(1, cur.CurrentLessonID, cur.CurrentGrammarIndex, cur.CurrentLevel, cur.StreakDays, cur.LastCompletedDate).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save user progress: %w", err)
	}
	return nil
}

func (r *progressRepo) GrammarState(ctx context.Context, id int) (*GrammarState, error) {
	query, args := builder().
		Select(grammarStateCols...).
		From(entsql.Table(tableGrammarStates)).
		Where(entsql.EQ("grammar_id", id)).
		Query()

	var row grammarStateRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query grammar state %d: %w", id, err)
	}
	s := row.state()
	return &s, nil
}

func (r *progressRepo) VocabState(ctx context.Context, id int) (*VocabState, error) {
	query, args := builder().
		Select(vocabStateCols...).
		From(entsql.Table(tableVocabStates)).
		Where(entsql.EQ("vocab_id", id)).
		Query()

	var row vocabStateRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query vocab state %d: %w", id, err)
	}
	s := row.state()
	return &s, nil
}

func (r *progressRepo) VocabStates(ctx context.Context, ids []int) (map[int]VocabState, error) {
	out := make(map[int]VocabState, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := builder().
		Select(vocabStateCols...).
		From(entsql.Table(tableVocabStates)).
		Where(entsql.In("vocab_id", args...)).
		Query()

	var rows []vocabStateRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, qargs...); err != nil {
		return nil, fmt.Errorf("query vocab states: %w", err)
	}
	for _, row := range rows {
		out[row.VocabID] = row.state()
	}
	return out, nil
}

func duePredicate(now time.Time) *entsql.Predicate {
	return entsql.Or(
		entsql.IsNull("next_review_at"),
		entsql.LTE("next_review_at", now.UnixMilli()),
	)
}

func (r *progressRepo) DueGrammar(ctx context.Context, now time.Time, limit int) ([]GrammarState, error) {
	sel := builder().
		Select(grammarStateCols...).
		From(entsql.Table(tableGrammarStates)).
		Where(duePredicate(now)).
		OrderBy(entsql.Asc("next_review_at"), entsql.Asc("grammar_id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows []grammarStateRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query due grammar: %w", err)
	}
	out := make([]GrammarState, len(rows))
	for i, row := range rows {
		out[i] = row.state()
	}
	return out, nil
}

func (r *progressRepo) DueVocab(ctx context.Context, now time.Time, limit int) ([]VocabState, error) {
	sel := builder().
		Select(vocabStateCols...).
		From(entsql.Table(tableVocabStates)).
		Where(duePredicate(now)).
		OrderBy(entsql.Asc("next_review_at"), entsql.Asc("vocab_id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows []vocabStateRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query due vocab: %w", err)
	}
	out := make([]VocabState, len(rows))
	for i, row := range rows {
		out[i] = row.state()
	}
	return out, nil
}

func (r *progressRepo) UpsertGrammarState(ctx context.Context, s GrammarState) error {
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	query, args := builder().
		Insert(tableGrammarStates).
		Columns(grammarStateCols...).
		Values(s.GrammarID, s.Mastery, toMillis(s.NextReviewAt), updated.UnixMilli()).
		OnConflict(entsql.ConflictColumns("grammar_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert grammar state %d: %w", s.GrammarID, err)
	}
	return nil
}

func (r *progressRepo) UpsertVocabState(ctx context.Context, s VocabState) error {
	query, args := builder().
		Insert(tableVocabStates).
		Columns(vocabStateCols...).
		Values(s.VocabID, s.Strength, toMillis(s.LastSeenAt), toMillis(s.NextReviewAt),
			s.Blocking, s.WrongCount, toMillis(s.WrongWindowStart)).
		OnConflict(entsql.ConflictColumns("vocab_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert vocab state %d: %w", s.VocabID, err)
	}
	return nil
}

func (r *progressRepo) CompletedDrills(ctx context.Context, grammarID int) (map[string]bool, error) {
	query, args := builder().
		Select("drill_id").
		From(entsql.Table(tableCompletedDrills)).
		Where(entsql.EQ("grammar_id", grammarID)).
		Query()

	var ids []string
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("query completed drills: %w", err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *progressRepo) MarkDrillCompleted(ctx context.Context, grammarID int, drillID string, at time.Time) error {
	query, args := builder().
		Insert(tableCompletedDrills).
		Columns("grammar_id", "drill_id", "completed_at").
		Values(grammarID, drillID, at.UnixMilli()).
		OnConflict(entsql.ConflictColumns("grammar_id", "drill_id"), entsql.DoNothing()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark drill %s completed: %w", drillID, err)
	}
	return nil
}

func (r *progressRepo) Reset(ctx context.Context) error {
	return inTx(ctx, r.db, func(ext sqlx.ExtContext) error {
		for _, t := range []string{
			tableGrammarStates, tableVocabStates, tableUserProgress,
			tableCompletedDrills, tableSessions, tableAnswerEvents,
		} {
			query, args := builder().Delete(t).Query()
			if _, err := ext.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("clear %s: %w", t, err)
			}
		}
		return nil
	})
}

func toMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}
