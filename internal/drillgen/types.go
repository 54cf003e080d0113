// Package drillgen generates grammar drills on demand with an LLM and keeps
// them in a TTL cache so generated ids stay resolvable for the day.
package drillgen

import (
	"context"

	"github.com/abhisek/kotoba/internal/content"
)

// Difficulty is the hint passed to the model.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyFor maps a grammar mastery score to a difficulty hint.
func DifficultyFor(mastery int) Difficulty {
	switch {
	case mastery < 40:
		return DifficultyEasy
	case mastery < 70:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// Request describes the drills wanted for one grammar point.
type Request struct {
	Grammar    content.GrammarPoint
	Count      int
	Difficulty Difficulty

	// Avoid holds stems already seen today; they are listed in the prompt
	// and rejected if the model repeats them.
	Avoid []string
}

// Generator produces drills for a grammar point. Returned drills have no
// ID; the Service assigns one.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]content.Drill, error)
}
