package session

import (
	"context"
	"fmt"
)

// firstNonEmpty runs tiers in order and returns the first non-empty result.
// Later tiers are not evaluated.
func firstNonEmpty[T any](tiers ...func() []T) []T {
	for _, tier := range tiers {
		if out := tier(); len(out) > 0 {
			return out
		}
	}
	return nil
}

// fill collects up to need distinct ids, asking each source in turn for
// the remaining shortfall. Sources after the need is met are not called.
func fill(need int, sources ...func(short int, have []string) []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, src := range sources {
		short := need - len(out)
		if short <= 0 {
			break
		}
		for _, id := range src(short, out) {
			if len(out) == need {
				break
			}
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// SelectCurrentGrammar picks today's grammar point. It scans the learner's
// lesson from grammarIndex for the first point under the mastery threshold
// and falls back to the lesson's first point when all are learned. An
// unknown or empty lesson is replaced by the default lesson.
func (p *Planner) SelectCurrentGrammar(ctx context.Context, lessonID, grammarIndex int) (int, int, error) {
	lesson, ok := p.content.Lesson(lessonID)
	if !ok || len(lesson.GrammarIDs) == 0 {
		p.log.Debug("lesson has no grammar, using default lesson", "lesson", lessonID)
		lesson, ok = p.content.Lesson(p.config.DefaultLessonID)
		if !ok || len(lesson.GrammarIDs) == 0 {
			return 0, 0, ErrNoGrammarContent
		}
		grammarIndex = 0
	}
	if grammarIndex < 0 || grammarIndex >= len(lesson.GrammarIDs) {
		grammarIndex = 0
	}

	first := 0
	for i, gid := range lesson.GrammarIDs {
		if _, ok := p.content.GrammarPoint(gid); !ok {
			p.log.Debug("grammar point missing from content", "grammar", gid)
			continue
		}
		if first == 0 {
			first = gid
		}
		if i < grammarIndex {
			continue
		}
		st, err := p.progress.GrammarState(ctx, gid)
		if err != nil {
			return 0, 0, fmt.Errorf("loading grammar state %d: %w", gid, err)
		}
		if st == nil || st.Mastery < p.config.MasteryThreshold {
			return lesson.ID, gid, nil
		}
	}
	if first == 0 {
		return 0, 0, ErrNoGrammarContent
	}
	return lesson.ID, first, nil
}
