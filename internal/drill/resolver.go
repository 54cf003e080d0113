package drill

import (
	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drillgen"
)

// Resolver turns question ids back into questions.
type Resolver struct {
	repo  content.Repository
	cache *drillgen.Cache
}

// NewResolver creates a Resolver. cache may be nil, in which case every
// generated id degrades to its grammar's first fixed drill.
func NewResolver(repo content.Repository, cache *drillgen.Cache) *Resolver {
	return &Resolver{repo: repo, cache: cache}
}

// Resolve returns the question addressed by raw. It reports false when the
// id parses but the content behind it is missing, and an error wrapping
// ErrMalformedID when raw cannot be parsed. Vocab-sense ids are not drills
// and always report false; use VocabQuiz.
func (r *Resolver) Resolve(raw string) (*Question, bool, error) {
	id, err := Parse(raw)
	if err != nil {
		return nil, false, err
	}

	switch id.Kind {
	case KindFixed, KindReview:
		g, ok := r.repo.GrammarPoint(id.GrammarID)
		if !ok {
			return nil, false, nil
		}
		d, ok := g.DrillByID(id.DrillID)
		if !ok {
			return nil, false, nil
		}
		src := SourceFixed
		if id.Kind == KindReview {
			src = SourceReview
		}
		return normalize(raw, d, src), true, nil

	case KindTransfer:
		g, ok := r.repo.GrammarPoint(id.GrammarID)
		if !ok {
			return nil, false, nil
		}
		return synthesizeTransfer(raw, g, id.Transfer), true, nil

	case KindGenerated:
		if r.cache != nil {
			if d, ok := r.cache.Get(raw); ok {
				return normalize(raw, d, SourceGenerated), true, nil
			}
		}
		g, ok := r.repo.GrammarPoint(id.GrammarID)
		if !ok || len(g.Drills) == 0 {
			return nil, false, nil
		}
		return normalize(raw, g.Drills[0], SourceFallback), true, nil
	}
	return nil, false, nil
}
