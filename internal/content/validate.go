package content

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidBundle is returned when a bundle's content graph does not hold
// together.
var ErrInvalidBundle = errors.New("content: invalid bundle")

var fixedDrillRe = regexp.MustCompile(`^g(\d+)_q\d+$`)

// Validate checks the bundle's structure: unique ids, references that
// resolve, and fixed drill ids of the form g{grammar}_q{n} naming their
// own grammar point. All problems are reported together.
func (b *Bundle) Validate() error {
	var errs []string
	dup := func(kind string, id any) {
		errs = append(errs, fmt.Sprintf("duplicate %s id: %v", kind, id))
	}

	lessons := make(map[int]bool, len(b.Lessons))
	for _, l := range b.Lessons {
		if lessons[l.ID] {
			dup("lesson", l.ID)
		}
		lessons[l.ID] = true
	}
	grammar := make(map[int]bool, len(b.Grammar))
	for _, g := range b.Grammar {
		if grammar[g.ID] {
			dup("grammar", g.ID)
		}
		grammar[g.ID] = true
	}
	vocab := make(map[int]bool, len(b.Vocab))
	for _, v := range b.Vocab {
		if vocab[v.ID] {
			dup("vocab", v.ID)
		}
		vocab[v.ID] = true
	}
	packs := make(map[int]bool, len(b.Packs))
	for _, p := range b.Packs {
		if packs[p.ID] {
			dup("pack", p.ID)
		}
		packs[p.ID] = true
	}

	for _, l := range b.Lessons {
		for _, gid := range l.GrammarIDs {
			if !grammar[gid] {
				errs = append(errs, fmt.Sprintf("lesson %d references nonexistent grammar %d", l.ID, gid))
			}
		}
		for _, pid := range l.VocabPackIDs {
			if !packs[pid] {
				errs = append(errs, fmt.Sprintf("lesson %d references nonexistent pack %d", l.ID, pid))
			}
		}
	}

	drills := map[string]bool{}
	for _, g := range b.Grammar {
		if g.LessonID != 0 && !lessons[g.LessonID] {
			errs = append(errs, fmt.Sprintf("grammar %d references nonexistent lesson %d", g.ID, g.LessonID))
		}
		for _, d := range g.Drills {
			if drills[d.ID] {
				dup("drill", strconv.Quote(d.ID))
			}
			drills[d.ID] = true
			m := fixedDrillRe.FindStringSubmatch(d.ID)
			if m == nil {
				errs = append(errs, fmt.Sprintf("grammar %d drill %q is not of the form g%d_q<n>", g.ID, d.ID, g.ID))
				continue
			}
			if gid, _ := strconv.Atoi(m[1]); gid != g.ID {
				errs = append(errs, fmt.Sprintf("grammar %d drill %q names grammar %d", g.ID, d.ID, gid))
			}
		}
	}

	for _, p := range b.Packs {
		if p.LessonID != nil && !lessons[*p.LessonID] {
			errs = append(errs, fmt.Sprintf("pack %d references nonexistent lesson %d", p.ID, *p.LessonID))
		}
		for _, vid := range p.VocabIDs {
			if !vocab[vid] {
				errs = append(errs, fmt.Sprintf("pack %d references nonexistent vocab %d", p.ID, vid))
			}
		}
	}

	sentences := make(map[int]bool, len(b.Sentences))
	for _, s := range b.Sentences {
		if sentences[s.ID] {
			dup("sentence", s.ID)
		}
		sentences[s.ID] = true
		if s.LessonID != 0 && !lessons[s.LessonID] {
			errs = append(errs, fmt.Sprintf("sentence %d references nonexistent lesson %d", s.ID, s.LessonID))
		}
		for _, gid := range s.GrammarIDs {
			if !grammar[gid] {
				errs = append(errs, fmt.Sprintf("sentence %d references nonexistent grammar %d", s.ID, gid))
			}
		}
		for _, vid := range s.BlockingVocabIDs {
			if !vocab[vid] {
				errs = append(errs, fmt.Sprintf("sentence %d references nonexistent vocab %d", s.ID, vid))
			}
		}
		points := map[string]bool{}
		for _, kp := range s.KeyPoints {
			if points[kp.ID] {
				errs = append(errs, fmt.Sprintf("sentence %d has duplicate key point %q", s.ID, kp.ID))
			}
			points[kp.ID] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalidBundle, strings.Join(errs, "\n  "))
	}
	return nil
}
