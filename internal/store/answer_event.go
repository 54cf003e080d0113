package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().
		Insert(tableAnswerEvents).
		Columns("sequence", "timestamp", "session_id", "phase", "item_id",
			"grammar_id", "vocab_id", "correct", "response_ms").
		Values(seqNum, time.Now().UnixMilli(), data.SessionID, data.Phase, data.ItemID,
			data.GrammarID, data.VocabID, data.Correct, data.ResponseMs).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AnswerStats(ctx context.Context) ([]AnswerStat, error) {
	query, args := builder().
		Select(
			"phase",
			entsql.As(entsql.Count("*"), "total"),
			entsql.As("COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0)", "correct"),
		).
		From(entsql.Table(tableAnswerEvents)).
		GroupBy("phase").
		OrderBy(entsql.Asc("phase")).
		Query()

	var stats []AnswerStat
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate answers: %w", err)
	}
	return stats, nil
}
