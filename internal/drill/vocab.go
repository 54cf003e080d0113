package drill

import (
	"strings"

	"github.com/abhisek/kotoba/internal/content"
)

// VocabQuiz asks for the meaning of a word.
type VocabQuiz struct {
	ID              string
	VocabID         int
	Surface         string
	Reading         string
	Options         []content.Option
	CorrectOptionID string
}

// Check reports whether optionID is the correct meaning.
func (q *VocabQuiz) Check(optionID string) bool {
	return strings.EqualFold(strings.TrimSpace(optionID), q.CorrectOptionID)
}

// maxDistractors is the number of wrong meanings offered.
const maxDistractors = 3

// VocabQuiz resolves a rev_v{vid}_sense id into a meaning choice. Wrong
// options are first meanings of pool words, picked by walking the pool
// from position vid mod len(pool), so the quiz is stable for a given pool.
func (r *Resolver) VocabQuiz(raw string, pool []content.Vocab) (*VocabQuiz, bool, error) {
	id, err := Parse(raw)
	if err != nil {
		return nil, false, err
	}
	if id.Kind != KindVocabSense {
		return nil, false, nil
	}
	words := r.repo.Vocab([]int{id.VocabID})
	if len(words) == 0 || len(words[0].Meanings) == 0 {
		return nil, false, nil
	}
	w := words[0]
	correct := w.Meanings[0]

	taken := map[string]bool{}
	for _, m := range w.Meanings {
		taken[m] = true
	}
	var distractors []string
	for i := range pool {
		if len(distractors) == maxDistractors {
			break
		}
		p := pool[(i+w.ID%len(pool))%len(pool)]
		if p.ID == w.ID || len(p.Meanings) == 0 || taken[p.Meanings[0]] {
			continue
		}
		taken[p.Meanings[0]] = true
		distractors = append(distractors, p.Meanings[0])
	}

	q := &VocabQuiz{ID: raw, VocabID: w.ID, Surface: w.Surface, Reading: w.Reading}
	q.Options, q.CorrectOptionID = labelOptions(placeCorrect(correct, distractors, w.ID), correct)
	return q, true, nil
}
