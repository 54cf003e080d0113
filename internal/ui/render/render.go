// Package render formats session state for the terminal.
package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drill"
	"github.com/abhisek/kotoba/internal/mastery"
	"github.com/abhisek/kotoba/internal/session"
	"github.com/abhisek/kotoba/internal/ui/theme"
)

// DefaultWidth is the render width used by the CLI.
const DefaultWidth = 60

// ProgressBar renders label followed by a bar done/total wide.
func ProgressBar(label string, done, total, width int) string {
	var b strings.Builder
	if label != "" {
		b.WriteString(theme.Body.Render(label) + "  ")
	}
	counter := fmt.Sprintf("  %d/%d", done, total)

	barWidth := max(width-lipgloss.Width(b.String())-len(counter), 4)
	filled := 0
	if total > 0 {
		filled = min(barWidth*done/total, barWidth)
	}
	b.WriteString(theme.ProgressFilled.Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)))
	b.WriteString(theme.Subtitle.Render(counter))
	return b.String()
}

// Stars renders n of 3 stars.
func Stars(n int) string {
	n = min(max(n, 0), 3)
	return theme.Star.Render(strings.Repeat("★", n) + strings.Repeat("☆", 3-n))
}

// Header renders the phase title and progress.
func Header(v session.View) string {
	title := theme.Title.Render(fmt.Sprintf("Step %d/5 · %s", int(v.Phase), v.Phase.Title()))
	if v.Phase == session.Step5 {
		return title
	}
	return title + "\n" + ProgressBar("", v.Cursor, v.Total, DefaultWidth)
}

// Question renders a drill with its options.
func Question(q *drill.Question) string {
	var b strings.Builder
	b.WriteString(theme.Japanese.Render(q.Stem))
	b.WriteString("\n\n")
	if q.HasOptions() {
		for _, o := range q.Options {
			b.WriteString(theme.Option.Render(fmt.Sprintf("  %s)  %s", o.ID, o.Text)))
			b.WriteString("\n")
		}
		b.WriteString(theme.Hint.Render("answer with: kotoba answer <option>"))
		return b.String()
	}
	hint := "type the missing part: kotoba answer <text>"
	if q.Kind == content.KindReorder {
		hint = "type the sentence in order: kotoba answer <text>"
	}
	b.WriteString(theme.Hint.Render(hint))
	return b.String()
}

// Feedback renders the result of an answer.
func Feedback(out *session.AnswerOutcome) string {
	if out.Question == nil {
		return theme.Skipped.Render("This question is unavailable and was skipped.")
	}
	var b strings.Builder
	if out.Record.Correct {
		b.WriteString(theme.Correct.Render("✓ Correct"))
	} else {
		b.WriteString(theme.Incorrect.Render("✗ Not quite. Answer: " + out.Question.CorrectText()))
	}
	if out.Question.Explanation != "" {
		b.WriteString("\n" + theme.Hint.Render(out.Question.Explanation))
	}
	next := "kotoba continue to move on"
	if !out.CanContinue {
		next = "kotoba continue to finish this step"
	}
	b.WriteString("\n" + theme.Subtitle.Render(next))
	return b.String()
}

// VocabQuiz renders a meaning quiz for one word.
func VocabQuiz(q *drill.VocabQuiz) string {
	var b strings.Builder
	word := q.Surface
	if q.Reading != "" && q.Reading != q.Surface {
		word += "（" + q.Reading + "）"
	}
	b.WriteString(theme.Japanese.Render(word))
	b.WriteString("\n\n")
	for _, o := range q.Options {
		b.WriteString(theme.Option.Render(fmt.Sprintf("  %s)  %s", o.ID, o.Text)))
		b.WriteString("\n")
	}
	b.WriteString(theme.Hint.Render("answer with: kotoba vocab <option>"))
	return b.String()
}

// Sentence renders an application sentence and its key points.
func Sentence(s *content.Sentence) string {
	var b strings.Builder
	b.WriteString(theme.Card.Render(theme.Japanese.Render(s.Text)))
	b.WriteString("\n")
	b.WriteString(theme.Label.Render("Which points did you notice?"))
	b.WriteString("\n")
	for _, kp := range s.KeyPoints {
		b.WriteString(theme.Option.Render(fmt.Sprintf("  [%s]  %s", kp.ID, kp.Label)))
		b.WriteString("\n")
	}
	b.WriteString(theme.Hint.Render("submit with: kotoba sentence <id> <id> ..."))
	return b.String()
}

// Submission renders the outcome of a sentence check.
func Submission(s *session.Submission) string {
	if s.Skipped {
		return theme.Skipped.Render("This sentence is unavailable and was skipped.")
	}
	line := fmt.Sprintf("%d of %d key points", s.Hits, s.Total)
	if s.Passed {
		return theme.Correct.Render("✓ Passed · " + line)
	}
	return theme.Incorrect.Render("✗ Keep reading · " + line)
}

func verdictText(r *session.Result) string {
	switch r.Verdict {
	case mastery.VerdictUp:
		return fmt.Sprintf("level up %d → %d", r.LevelBefore, r.LevelAfter)
	case mastery.VerdictDown:
		return fmt.Sprintf("level down %d → %d", r.LevelBefore, r.LevelAfter)
	}
	return fmt.Sprintf("level stays at %d", r.LevelAfter)
}

func score(s session.PhaseScore) string {
	if s.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", s.Correct, s.Total)
}

// Result renders the session summary.
func Result(r *session.Result) string {
	rows := [][2]string{
		{"Grammar drill", score(r.Step1)},
		{"Transfer", score(r.Step2)},
		{"Vocab combo", score(r.Step3)},
		{"Sentences passed", score(r.Step4)},
		{"Avg vocab time", fmt.Sprintf("%.1fs", float64(r.VocabAvgMs)/1000)},
		{"Mastery", fmt.Sprintf("%d → %d", r.MasteryBefore, r.MasteryAfter)},
		{"Level", verdictText(r)},
		{"Streak", fmt.Sprintf("%d day(s)", r.StreakDays)},
	}
	var b strings.Builder
	b.WriteString(Stars(r.Stars))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(theme.Label.Render(fmt.Sprintf("%-18s", row[0])))
		b.WriteString(theme.Body.Render(row[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.Body.Render(r.Coach))
	return b.String()
}

// View renders whatever the view currently shows.
func View(v session.View) string {
	parts := []string{Header(v)}
	switch {
	case v.Result != nil:
		parts = append(parts, Result(v.Result))
	case v.Missing:
		parts = append(parts, theme.Skipped.Render("Content for "+v.ItemID+" is missing."),
			theme.Hint.Render("kotoba continue to skip it"))
	case v.Question != nil:
		parts = append(parts, Question(v.Question))
		if v.Answer != nil {
			parts = append(parts, theme.Subtitle.Render("Answered. kotoba continue to move on"))
		}
	case v.Vocab != nil:
		parts = append(parts, VocabQuiz(v.Vocab))
	case v.Sentence != nil:
		parts = append(parts, Sentence(v.Sentence))
	case v.Phase == session.Step4:
		parts = append(parts, theme.Hint.Render("No sentence practice today. kotoba continue to see your summary"))
	default:
		parts = append(parts, theme.Hint.Render("Step complete. kotoba continue"))
	}
	if v.ReadOnly && v.Result != nil {
		parts = append(parts, theme.Subtitle.Render("Today's session is complete. Come back tomorrow."))
	}
	return strings.Join(parts, "\n\n")
}
