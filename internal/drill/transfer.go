package drill

import (
	"fmt"
	"strings"

	"github.com/abhisek/kotoba/internal/content"
)

// meaningDistractors are shared by every meaning drill; the correct option
// is always the grammar point's own rule, so it stays unique.
var meaningDistractors = []string{
	"Marks the topic of the sentence and contrasts it with others",
	"Expresses a wish or desire of the speaker",
	"Turns the verb into a polite request",
}

// synthesizeTransfer builds the transfer drill for template. It depends
// only on g and template, so the same id always yields the same question.
func synthesizeTransfer(id string, g content.GrammarPoint, template string) *Question {
	if template == TransferCounter {
		if q := counterDrill(id, g); q != nil {
			return q
		}
	}
	return meaningDrill(id, g)
}

func meaningDrill(id string, g content.GrammarPoint) *Question {
	texts := placeCorrect(g.CoreRule, meaningDistractors, g.ID)
	q := &Question{
		ID:          id,
		GrammarID:   g.ID,
		Kind:        content.KindChoice,
		Stem:        fmt.Sprintf("Which statement describes %s?", g.Name),
		Explanation: g.CoreRule,
		Source:      SourceTransfer,
	}
	q.Options, q.CorrectOptionID = labelOptions(texts, g.CoreRule)
	return q
}

// counterDrill asks which sentence misuses the rule. Without a
// counter-example it asks whether the first worked example is valid.
// Without either it returns nil.
func counterDrill(id string, g content.GrammarPoint) *Question {
	examples := make([]string, 0, 3)
	for _, ex := range g.Examples {
		if len(examples) == 3 {
			break
		}
		examples = append(examples, stripMark(ex.Sentence))
	}

	if len(g.CounterExamples) == 0 {
		if len(examples) == 0 {
			return nil
		}
		return normalize(id, content.Drill{
			Kind:          content.KindJudge,
			Stem:          fmt.Sprintf("Is this a correct use of %s?\n%s", g.Name, examples[0]),
			CorrectAnswer: "true",
			Explanation:   g.CoreRule,
			GrammarID:     g.ID,
		}, SourceTransfer)
	}

	ce := g.CounterExamples[0]
	wrong := stripMark(ce.Sentence)
	if len(examples) == 0 {
		return normalize(id, content.Drill{
			Kind:          content.KindJudge,
			Stem:          fmt.Sprintf("Is this a correct use of %s?\n%s", g.Name, wrong),
			CorrectAnswer: "false",
			Explanation:   ce.Hint,
			GrammarID:     g.ID,
		}, SourceTransfer)
	}

	q := &Question{
		ID:          id,
		GrammarID:   g.ID,
		Kind:        content.KindChoice,
		Stem:        fmt.Sprintf("Which sentence uses %s incorrectly?", g.Name),
		Explanation: ce.Hint,
		Source:      SourceTransfer,
	}
	q.Options, q.CorrectOptionID = labelOptions(placeCorrect(wrong, examples, g.ID), wrong)
	return q
}

// placeCorrect inserts correct among distractors at position seed mod n.
func placeCorrect(correct string, distractors []string, seed int) []string {
	n := len(distractors) + 1
	pos := seed % n
	if pos < 0 {
		pos += n
	}
	out := make([]string, 0, n)
	out = append(out, distractors[:pos]...)
	out = append(out, correct)
	return append(out, distractors[pos:]...)
}

func labelOptions(texts []string, correct string) ([]content.Option, string) {
	opts := make([]content.Option, len(texts))
	var correctID string
	for i, t := range texts {
		opts[i] = content.Option{ID: string(rune('a' + i)), Text: t}
		if t == correct && correctID == "" {
			correctID = opts[i].ID
		}
	}
	return opts, correctID
}

// stripMark removes leading ○/× correctness glyphs.
func stripMark(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, "○◯×✕✗✓ 　"))
}
