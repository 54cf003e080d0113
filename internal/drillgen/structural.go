package drillgen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/kotoba/internal/content"
)

const (
	maxStemRunes        = 300
	maxExplanationRunes = 600
)

// StructuralValidator checks the shape of a drill for its kind: choice drills
// need 2-4 distinct options with ids a..d and a correct id among them, judge
// drills answer "true" or "false", fill and reorder drills need a literal
// answer.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(d *content.Drill, _ Request) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(d.Stem) == "" {
		return fail("stem is empty")
	}
	if utf8.RuneCountInString(d.Stem) > maxStemRunes {
		return fail("stem exceeds %d characters", maxStemRunes)
	}
	if utf8.RuneCountInString(d.Explanation) > maxExplanationRunes {
		return fail("explanation exceeds %d characters", maxExplanationRunes)
	}

	switch d.Kind {
	case content.KindChoice:
		if len(d.Options) < 2 || len(d.Options) > 4 {
			return fail("choice drill needs 2-4 options, got %d", len(d.Options))
		}
		seenID := make(map[string]bool, len(d.Options))
		seenText := make(map[string]bool, len(d.Options))
		for i, o := range d.Options {
			want := string(rune('a' + i))
			if o.ID != want {
				return fail("option %d has id %q, want %q", i+1, o.ID, want)
			}
			text := strings.TrimSpace(o.Text)
			if text == "" {
				return fail("option %q is empty", o.ID)
			}
			if seenText[text] {
				return fail("duplicate option %q", text)
			}
			seenID[o.ID] = true
			seenText[text] = true
		}
		if !seenID[d.CorrectOptionID] {
			return fail("correct option %q is not among the options", d.CorrectOptionID)
		}
	case content.KindJudge:
		if d.CorrectAnswer != "true" && d.CorrectAnswer != "false" {
			return fail("judge answer must be \"true\" or \"false\", got %q", d.CorrectAnswer)
		}
	case content.KindFill, content.KindReorder:
		if strings.TrimSpace(d.CorrectAnswer) == "" {
			return fail("%s drill has no answer", d.Kind)
		}
	default:
		return fail("unknown kind %q", d.Kind)
	}
	return nil
}

// NoveltyValidator rejects drills whose stem repeats a fixed drill of the
// grammar point or one of the request's avoided stems.
type NoveltyValidator struct{}

func (v *NoveltyValidator) Name() string { return "novelty" }

func (v *NoveltyValidator) Validate(d *content.Drill, req Request) *ValidationError {
	stem := normalizeStem(d.Stem)
	for _, fixed := range req.Grammar.Drills {
		if normalizeStem(fixed.Stem) == stem {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("stem duplicates fixed drill %s", fixed.ID)}
		}
	}
	for _, s := range req.Avoid {
		if normalizeStem(s) == stem {
			return &ValidationError{Validator: v.Name(), Message: "stem was already asked today"}
		}
	}
	return nil
}

// normalizeStem drops all whitespace; Japanese stems do not rely on it.
func normalizeStem(s string) string {
	return strings.Join(strings.Fields(s), "")
}
