package drill

import (
	"strings"

	"github.com/abhisek/kotoba/internal/content"
)

// Source records where a resolved question came from.
type Source string

const (
	SourceFixed     Source = "fixed"
	SourceReview    Source = "review"
	SourceTransfer  Source = "transfer"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback" // generated drill evicted, first fixed drill served instead
)

// Options shown for a normalized judge drill.
const (
	JudgeCorrectText = "○ correct"
	JudgeWrongText   = "× wrong"
)

// Question is a drill ready to render. Judge drills are normalized to
// two-option choices, so Kind is choice, fill or reorder.
type Question struct {
	ID              string
	GrammarID       int
	Kind            content.DrillKind
	Stem            string
	Options         []content.Option
	CorrectOptionID string
	CorrectAnswer   string
	Explanation     string
	Source          Source
}

// HasOptions reports whether the question is answered by option id.
func (q *Question) HasOptions() bool {
	return q.Kind == content.KindChoice
}

// Check reports whether answer is correct: an option id for choice
// questions, the literal answer for fill and reorder.
func (q *Question) Check(answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if q.HasOptions() {
		return strings.EqualFold(answer, q.CorrectOptionID)
	}
	return compact(answer) == compact(q.CorrectAnswer)
}

// CorrectText returns the text of the correct answer for feedback.
func (q *Question) CorrectText() string {
	for _, o := range q.Options {
		if o.ID == q.CorrectOptionID {
			return o.Text
		}
	}
	return q.CorrectAnswer
}

// compact removes whitespace, so reorder answers typed with or without
// separators compare equal.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// normalize builds a Question from a content drill, turning judge drills
// into a ○/× choice.
func normalize(id string, d content.Drill, src Source) *Question {
	q := &Question{
		ID:              id,
		GrammarID:       d.GrammarID,
		Kind:            d.Kind,
		Stem:            d.Stem,
		Options:         d.Options,
		CorrectOptionID: d.CorrectOptionID,
		CorrectAnswer:   d.CorrectAnswer,
		Explanation:     d.Explanation,
		Source:          src,
	}
	if d.Kind == content.KindJudge {
		q.Kind = content.KindChoice
		q.Options = []content.Option{
			{ID: "a", Text: JudgeCorrectText},
			{ID: "b", Text: JudgeWrongText},
		}
		q.CorrectOptionID = "b"
		if d.CorrectAnswer == "true" {
			q.CorrectOptionID = "a"
		}
	}
	return q
}
