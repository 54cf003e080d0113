package content

import (
	"sort"
)

// Catalog is an in-memory Repository built from a Bundle. It is immutable
// after construction and safe for concurrent use.
type Catalog struct {
	lessons   map[int]Lesson
	order     []int // lesson ids in ascending order
	grammar   map[int]GrammarPoint
	vocab     map[int]Vocab
	vocabIDs  []int
	packs     map[int]VocabPack
	sentences []Sentence
	byID      map[int]Sentence
}

// NewCatalog indexes a bundle. Later entries with a duplicate id replace
// earlier ones.
func NewCatalog(b *Bundle) *Catalog {
	c := &Catalog{
		lessons: make(map[int]Lesson),
		grammar: make(map[int]GrammarPoint),
		vocab:   make(map[int]Vocab),
		packs:   make(map[int]VocabPack),
		byID:    make(map[int]Sentence),
	}
	if b == nil {
		return c
	}

	for _, l := range b.Lessons {
		if _, dup := c.lessons[l.ID]; !dup {
			c.order = append(c.order, l.ID)
		}
		c.lessons[l.ID] = l
	}
	sort.Ints(c.order)

	for _, g := range b.Grammar {
		for i := range g.Drills {
			if g.Drills[i].GrammarID == 0 {
				g.Drills[i].GrammarID = g.ID
			}
		}
		c.grammar[g.ID] = g
	}

	for _, v := range b.Vocab {
		if _, dup := c.vocab[v.ID]; !dup {
			c.vocabIDs = append(c.vocabIDs, v.ID)
		}
		c.vocab[v.ID] = v
	}

	for _, p := range b.Packs {
		c.packs[p.ID] = p
	}

	for _, s := range b.Sentences {
		if _, dup := c.byID[s.ID]; dup {
			for i := range c.sentences {
				if c.sentences[i].ID == s.ID {
					c.sentences[i] = s
				}
			}
		} else {
			c.sentences = append(c.sentences, s)
		}
		c.byID[s.ID] = s
	}
	return c
}

func (c *Catalog) Lesson(id int) (Lesson, bool) {
	l, ok := c.lessons[id]
	return l, ok
}

func (c *Catalog) GrammarPoint(id int) (GrammarPoint, bool) {
	g, ok := c.grammar[id]
	return g, ok
}

func (c *Catalog) VocabPack(id int) (VocabPack, bool) {
	p, ok := c.packs[id]
	return p, ok
}

// Vocab returns the words for ids in the given order, skipping unknown ids.
func (c *Catalog) Vocab(ids []int) []Vocab {
	out := make([]Vocab, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.vocab[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// SentencesByGrammar returns sentences tagged with grammarID. An empty
// style matches every style.
func (c *Catalog) SentencesByGrammar(grammarID int, style Style) []Sentence {
	var out []Sentence
	for _, s := range c.sentences {
		if style != "" && s.Style != style {
			continue
		}
		if containsInt(s.GrammarIDs, grammarID) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Catalog) SentencesByLesson(lessonID int) []Sentence {
	var out []Sentence
	for _, s := range c.sentences {
		if s.LessonID == lessonID {
			out = append(out, s)
		}
	}
	return out
}

func (c *Catalog) Sentence(id int) (Sentence, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// PreviousLesson returns the lesson ordered immediately before id.
func (c *Catalog) PreviousLesson(id int) (Lesson, bool) {
	i := sort.SearchInts(c.order, id)
	if i == 0 || len(c.order) == 0 {
		return Lesson{}, false
	}
	return c.lessons[c.order[i-1]], true
}

// NextLesson returns the lesson ordered immediately after id.
func (c *Catalog) NextLesson(id int) (Lesson, bool) {
	i := sort.SearchInts(c.order, id)
	if i < len(c.order) && c.order[i] == id {
		i++
	}
	if i >= len(c.order) {
		return Lesson{}, false
	}
	return c.lessons[c.order[i]], true
}

// FunVocab returns up to limit "fun" words at or below level, in catalog
// order.
func (c *Catalog) FunVocab(level, limit int) []Vocab {
	if limit <= 0 {
		return nil
	}
	var out []Vocab
	for _, id := range c.vocabIDs {
		v := c.vocab[id]
		if !v.HasTag(FunTag) || v.Level > level {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Lessons returns every lesson in id order.
func (c *Catalog) Lessons() []Lesson {
	out := make([]Lesson, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.lessons[id])
	}
	return out
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
