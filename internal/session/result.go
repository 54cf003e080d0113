package session

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/kotoba/internal/mastery"
	"github.com/abhisek/kotoba/internal/store"
)

// Stars rates overall accuracy from 0 to 3.
func Stars(overall float64) int {
	switch {
	case overall >= 0.9:
		return 3
	case overall >= 0.7:
		return 2
	case overall >= 0.4:
		return 1
	}
	return 0
}

// assessmentInput collects the graded outcomes of the session. Skipped
// items are left out.
func (c *change) assessmentInput() mastery.Input {
	plan := &c.s.Plan
	in := mastery.Input{
		GrammarID:       plan.GrammarID,
		VocabCorrect:    plan.Step3.Correct,
		VocabTotal:      plan.Step3.Correct + plan.Step3.Wrong,
		VocabAvgMs:      int(math.Round(plan.Step3.AvgResponseMs)),
		VocabBestStreak: plan.Step3.BestStreak,
	}
	in.Step1Correct, in.Step1Total = plan.Step1.Score()
	in.Step2Correct, in.Step2Total = plan.Step2.Score()
	for _, sub := range plan.Step4.Submissions {
		if sub.Skipped {
			continue
		}
		out := mastery.SentenceOutcome{SentenceID: sub.SentenceID, Passed: sub.Passed}
		if s, ok := c.m.content.Sentence(sub.SentenceID); ok {
			out.BlockingVocabIDs = s.BlockingVocabIDs
		}
		in.Sentences = append(in.Sentences, out)
	}
	return in
}

// finish scores the session, applies the assessment to the learner's
// progress and enters Step5.
func (c *change) finish(ctx context.Context) error {
	m, plan, now := c.m, &c.s.Plan, c.now
	in := c.assessmentInput()
	a := m.assessor.Assess(in)

	up, err := c.progress.UserProgress(ctx)
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}
	masteryBefore, err := c.grammarMastery(ctx, plan.GrammarID)
	if err != nil {
		return err
	}
	for _, adj := range a.Adjustments {
		if _, err := c.sched.AdjustGrammar(ctx, adj.GrammarID, adj.Delta, now); err != nil {
			return err
		}
	}
	for _, vid := range a.BlockingVocabIDs {
		if err := c.sched.MarkBlocking(ctx, vid, now); err != nil {
			return err
		}
	}
	masteryAfter, err := c.grammarMastery(ctx, plan.GrammarID)
	if err != nil {
		return err
	}

	levelBefore := max(up.CurrentLevel, 1)
	levelAfter := min(max(levelBefore+a.Verdict.Delta(), 1), m.config.MaxLevel)
	streak := nextStreak(up, plan.Date)
	update := store.ProgressUpdate{
		Level:             &levelAfter,
		StreakDays:        &streak,
		LastCompletedDate: &plan.Date,
	}

	lesson, ok := m.content.Lesson(plan.LessonID)
	if ok && up.CurrentLessonID == plan.LessonID && masteryAfter >= m.config.MasteryThreshold {
		if pos := slices.Index(lesson.GrammarIDs, plan.GrammarID); pos >= 0 && pos+1 < len(lesson.GrammarIDs) {
			next := pos + 1
			update.GrammarIndex = &next
		}
	}

	grammarAcc := in.GrammarAccuracy()
	unlocked := 0
	if next, ok, err := c.unlockable(ctx, plan.LessonID, grammarAcc); err != nil {
		return err
	} else if ok {
		unlocked = next
		zero := 0
		update.LessonID = &unlocked
		update.GrammarIndex = &zero
	}
	if err := c.progress.UpdateUserProgress(ctx, update); err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}

	step1c, step1t := plan.Step1.Score()
	step2c, step2t := plan.Step2.Score()
	res := &Result{
		Stars:            Stars(in.OverallAccuracy()),
		Step1:            PhaseScore{Correct: step1c, Total: step1t},
		Step2:            PhaseScore{Correct: step2c, Total: step2t},
		Step3:            PhaseScore{Correct: in.VocabCorrect, Total: in.VocabTotal},
		Step4:            PhaseScore{Correct: in.SentencesPassed(), Total: len(in.Sentences)},
		VocabAvgMs:       in.VocabAvgMs,
		GrammarAccuracy:  grammarAcc,
		OverallAccuracy:  in.OverallAccuracy(),
		Fluency:          a.Fluency,
		Verdict:          a.Verdict,
		LevelBefore:      levelBefore,
		LevelAfter:       levelAfter,
		MasteryBefore:    masteryBefore,
		MasteryAfter:     masteryAfter,
		StreakDays:       streak,
		UnlockedLessonID: unlocked,
		BlockingVocabIDs: a.BlockingVocabIDs,
	}
	res.Coach = coachText(res)

	c.s.Result = res
	c.s.Phase = Step5
	c.s.CompletedAt = &now
	m.log.Info("session finished",
		"id", c.s.ID, "stars", res.Stars, "verdict", res.Verdict,
		"grammar_accuracy", grammarAcc, "unlocked", unlocked)
	return nil
}

func (c *change) grammarMastery(ctx context.Context, gid int) (int, error) {
	st, err := c.progress.GrammarState(ctx, gid)
	if err != nil {
		return 0, fmt.Errorf("loading grammar state %d: %w", gid, err)
	}
	if st == nil {
		return 0, nil
	}
	return st.Mastery, nil
}

// unlockable reports the next lesson when this session and the previous
// UnlockStreak-1 completed sessions all practiced lessonID at or above
// UnlockAccuracy.
func (c *change) unlockable(ctx context.Context, lessonID int, accuracy float64) (int, bool, error) {
	cfg := c.m.config
	if cfg.UnlockStreak < 1 || accuracy < cfg.UnlockAccuracy {
		return 0, false, nil
	}
	// RecentCompleted treats a zero limit as unlimited.
	if need := cfg.UnlockStreak - 1; need > 0 {
		prior, err := c.sessions.RecentCompleted(ctx, need)
		if err != nil {
			return 0, false, fmt.Errorf("loading recent sessions: %w", err)
		}
		if len(prior) < need {
			return 0, false, nil
		}
		for _, rec := range prior {
			if rec.GrammarAccuracy < cfg.UnlockAccuracy {
				return 0, false, nil
			}
			s, err := decode(&rec)
			if err != nil || s.Plan.LessonID != lessonID {
				return 0, false, nil
			}
		}
	}
	next, ok := c.m.content.NextLesson(lessonID)
	if !ok {
		return 0, false, nil
	}
	return next.ID, true, nil
}

// nextStreak continues the streak when the last completed day was
// yesterday and restarts it otherwise.
func nextStreak(up store.UserProgress, date string) int {
	if up.LastCompletedDate == date {
		return max(up.StreakDays, 1)
	}
	today, err := time.Parse(dateLayout, date)
	if err != nil {
		return 1
	}
	if up.LastCompletedDate == today.AddDate(0, 0, -1).Format(dateLayout) {
		return up.StreakDays + 1
	}
	return 1
}

func coachText(r *Result) string {
	var b strings.Builder
	switch r.Stars {
	case 3:
		b.WriteString("Excellent session.")
	case 2:
		b.WriteString("Solid work today.")
	case 1:
		b.WriteString("Good effort, keep at it.")
	default:
		b.WriteString("Tough one. Tomorrow will be easier.")
	}
	switch r.Verdict {
	case mastery.VerdictUp:
		fmt.Fprintf(&b, " Level up to %d.", r.LevelAfter)
	case mastery.VerdictDown:
		fmt.Fprintf(&b, " Stepping back to level %d to consolidate.", r.LevelAfter)
	}
	if r.Step2.Total > 0 && r.Step2.Correct < r.Step2.Total {
		b.WriteString(" Review the core rule before tomorrow.")
	}
	if n := len(r.BlockingVocabIDs); n > 0 {
		fmt.Fprintf(&b, " %d word(s) slowed your reading; they will come up first next time.", n)
	}
	if r.UnlockedLessonID != 0 {
		fmt.Fprintf(&b, " Lesson %d unlocked!", r.UnlockedLessonID)
	}
	if r.StreakDays > 1 {
		fmt.Fprintf(&b, " %d-day streak.", r.StreakDays)
	}
	return b.String()
}
