package spacedrep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/kotoba/internal/store"
)

// Scheduler answers "what is due" and records attempts for grammar points
// and vocabulary against the progress store.
type Scheduler struct {
	repo   store.ProgressRepo
	policy Policy
}

// NewScheduler creates a scheduler over repo.
func NewScheduler(repo store.ProgressRepo, policy Policy) *Scheduler {
	return &Scheduler{repo: repo, policy: policy}
}

// WithRepo returns a scheduler with the same policy over repo, typically
// one bound to a transaction.
func (s *Scheduler) WithRepo(repo store.ProgressRepo) *Scheduler {
	return &Scheduler{repo: repo, policy: s.policy}
}

// Policy returns the scheduler's policy.
func (s *Scheduler) Policy() Policy {
	return s.policy
}

// DueGrammar returns grammar states due at now, most overdue first with
// grammar id as tie-break. Never-scheduled states count as most overdue.
func (s *Scheduler) DueGrammar(ctx context.Context, now time.Time, limit int) ([]store.GrammarState, error) {
	due, err := s.repo.DueGrammar(ctx, now, 0)
	if err != nil {
		return nil, fmt.Errorf("due grammar: %w", err)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return mostOverdueFirst(due[i].NextReviewAt, due[j].NextReviewAt, due[i].GrammarID, due[j].GrammarID)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// DueVocab is DueGrammar for vocabulary.
func (s *Scheduler) DueVocab(ctx context.Context, now time.Time, limit int) ([]store.VocabState, error) {
	due, err := s.repo.DueVocab(ctx, now, 0)
	if err != nil {
		return nil, fmt.Errorf("due vocab: %w", err)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return mostOverdueFirst(due[i].NextReviewAt, due[j].NextReviewAt, due[i].VocabID, due[j].VocabID)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func mostOverdueFirst(a, b *time.Time, aID, bID int) bool {
	switch {
	case a == nil && b == nil:
		return aID < bID
	case a == nil:
		return true
	case b == nil:
		return false
	case !a.Equal(*b):
		return a.Before(*b)
	}
	return aID < bID
}

// IsOverdue reports whether an item scheduled at next is past the overdue
// threshold.
func (s *Scheduler) IsOverdue(next *time.Time, now time.Time) bool {
	return s.policy.Classify(next, true, now) == BucketOverdue
}

// RecordGrammarAttempt scores one grammar answer and reschedules the point.
// Missing state starts at zero mastery.
func (s *Scheduler) RecordGrammarAttempt(ctx context.Context, grammarID int, correct bool, now time.Time) (store.GrammarState, error) {
	cur, err := s.repo.GrammarState(ctx, grammarID)
	if err != nil {
		return store.GrammarState{}, err
	}
	st := store.GrammarState{GrammarID: grammarID}
	if cur != nil {
		st = *cur
	}

	st.Mastery = s.policy.Adjust(st.Mastery, correct)
	next := s.policy.NextReview(st.Mastery, correct, now)
	st.NextReviewAt = &next
	st.UpdatedAt = now

	if err := s.repo.UpsertGrammarState(ctx, st); err != nil {
		return store.GrammarState{}, err
	}
	return st, nil
}

// RecordVocabAttempt scores one vocabulary answer, reschedules the word and
// maintains the rolling wrong-count. A correct answer clears the blocking
// flag.
func (s *Scheduler) RecordVocabAttempt(ctx context.Context, vocabID int, correct bool, now time.Time) (store.VocabState, error) {
	cur, err := s.repo.VocabState(ctx, vocabID)
	if err != nil {
		return store.VocabState{}, err
	}
	st := store.VocabState{VocabID: vocabID}
	if cur != nil {
		st = *cur
	}

	st.Strength = s.policy.Adjust(st.Strength, correct)
	next := s.policy.NextReview(st.Strength, correct, now)
	st.NextReviewAt = &next
	seen := now
	st.LastSeenAt = &seen

	if correct {
		st.Blocking = false
	} else {
		if st.WrongWindowStart == nil || now.Sub(*st.WrongWindowStart) > s.policy.WrongWindow {
			start := now
			st.WrongWindowStart = &start
			st.WrongCount = 0
		}
		st.WrongCount++
	}

	if err := s.repo.UpsertVocabState(ctx, st); err != nil {
		return store.VocabState{}, err
	}
	return st, nil
}

// AdjustGrammar applies an out-of-band mastery delta (end-of-session
// assessment), clamped to the score range. The review date is unchanged.
func (s *Scheduler) AdjustGrammar(ctx context.Context, grammarID, delta int, now time.Time) (store.GrammarState, error) {
	cur, err := s.repo.GrammarState(ctx, grammarID)
	if err != nil {
		return store.GrammarState{}, err
	}
	st := store.GrammarState{GrammarID: grammarID}
	if cur != nil {
		st = *cur
	}
	st.Mastery = Clamp(st.Mastery + delta)
	st.UpdatedAt = now
	if err := s.repo.UpsertGrammarState(ctx, st); err != nil {
		return store.GrammarState{}, err
	}
	return st, nil
}

// AdjustVocab applies an out-of-band strength delta.
func (s *Scheduler) AdjustVocab(ctx context.Context, vocabID, delta int) (store.VocabState, error) {
	cur, err := s.repo.VocabState(ctx, vocabID)
	if err != nil {
		return store.VocabState{}, err
	}
	st := store.VocabState{VocabID: vocabID}
	if cur != nil {
		st = *cur
	}
	st.Strength = Clamp(st.Strength + delta)
	if err := s.repo.UpsertVocabState(ctx, st); err != nil {
		return store.VocabState{}, err
	}
	return st, nil
}

// MarkBlocking flags a word as having blocked comprehension and makes it due
// now.
func (s *Scheduler) MarkBlocking(ctx context.Context, vocabID int, now time.Time) error {
	cur, err := s.repo.VocabState(ctx, vocabID)
	if err != nil {
		return err
	}
	st := store.VocabState{VocabID: vocabID}
	if cur != nil {
		st = *cur
	}
	st.Blocking = true
	if !IsDue(st.NextReviewAt, now) {
		due := now
		st.NextReviewAt = &due
	}
	return s.repo.UpsertVocabState(ctx, st)
}

// RankVocab orders ids for review: overdue, due, new, then not-due. Within
// a bucket blocking words come first, then the input order. Duplicates are
// dropped.
func (s *Scheduler) RankVocab(ctx context.Context, ids []int, now time.Time) ([]int, error) {
	states, err := s.repo.VocabStates(ctx, ids)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		id       int
		bucket   Bucket
		blocking bool
	}
	seen := make(map[int]bool, len(ids))
	items := make([]ranked, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		st, ok := states[id]
		items = append(items, ranked{
			id:       id,
			bucket:   s.policy.Classify(st.NextReviewAt, ok, now),
			blocking: ok && st.Blocking,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].bucket != items[j].bucket {
			return items[i].bucket < items[j].bucket
		}
		return items[i].blocking && !items[j].blocking
	})

	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out, nil
}
