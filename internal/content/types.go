package content

// Style tags a sentence by register.
type Style string

const (
	StyleImmersive Style = "immersive" // stylized, drawn from media
	StyleTextbook  Style = "textbook"
)

// DrillKind describes how a drill is answered.
type DrillKind string

const (
	KindChoice  DrillKind = "choice"
	KindFill    DrillKind = "fill"
	KindReorder DrillKind = "reorder"
	KindJudge   DrillKind = "judge"
)

// FunTag marks incidental vocabulary picked up outside the lesson track.
const FunTag = "fun"

// Lesson groups grammar points and vocabulary packs.
type Lesson struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	GrammarIDs   []int  `json:"grammar_ids"`
	VocabPackIDs []int  `json:"vocab_pack_ids"`
}

// Option is a single answer choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Drill is a practice question attached to a grammar point.
type Drill struct {
	ID              string    `json:"id"`
	Kind            DrillKind `json:"kind"`
	Stem            string    `json:"stem"`
	Options         []Option  `json:"options,omitempty"`
	CorrectOptionID string    `json:"correct_option_id,omitempty"`
	CorrectAnswer   string    `json:"correct_answer,omitempty"`
	Explanation     string    `json:"explanation"`
	GrammarID       int       `json:"grammar_id"`
}

// CounterExample is an incorrect use of a rule with a hint explaining why.
type CounterExample struct {
	Sentence string `json:"sentence"`
	Hint     string `json:"hint"`
}

// Example is a worked, valid use of a rule.
type Example struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// GrammarPoint is a single rule taught in a lesson.
type GrammarPoint struct {
	ID              int              `json:"id"`
	LessonID        int              `json:"lesson_id"`
	Name            string           `json:"name"`
	CoreRule        string           `json:"core_rule"`
	Structure       string           `json:"structure"`
	Drills          []Drill          `json:"drills"`
	CounterExamples []CounterExample `json:"counter_examples"`
	Examples        []Example        `json:"examples"`
	Level           int              `json:"level"`
}

// DrillByID returns the drill with the given literal id.
func (g *GrammarPoint) DrillByID(id string) (Drill, bool) {
	for _, d := range g.Drills {
		if d.ID == id {
			return d, true
		}
	}
	return Drill{}, false
}

// Vocab is a single word.
type Vocab struct {
	ID       int      `json:"id"`
	Surface  string   `json:"surface"`
	Reading  string   `json:"reading"`
	Meanings []string `json:"meanings"`
	Level    int      `json:"level"`
	Tags     []string `json:"tags,omitempty"`
}

// HasTag reports whether the word carries tag.
func (v Vocab) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// VocabPack is an ordered list of words. LessonID is nil for packs that
// are not tied to the lesson track.
type VocabPack struct {
	ID       int   `json:"id"`
	LessonID *int  `json:"lesson_id,omitempty"`
	VocabIDs []int `json:"vocab_ids"`
	Level    int   `json:"level"`
}

// KeyPoint is an annotated span the learner is expected to notice.
type KeyPoint struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Sentence is an application sentence for one or more grammar points.
type Sentence struct {
	ID               int        `json:"id"`
	Text             string     `json:"text"`
	Style            Style      `json:"style"`
	LessonID         int        `json:"lesson_id"`
	Level            int        `json:"level"`
	GrammarIDs       []int      `json:"grammar_ids"`
	KeyPoints        []KeyPoint `json:"key_points"`
	BlockingVocabIDs []int      `json:"blocking_vocab_ids,omitempty"`
}

// Repository is read-only access to the content graph. Lookups report
// absence with a false flag or an empty slice and never fail.
type Repository interface {
	Lesson(id int) (Lesson, bool)
	GrammarPoint(id int) (GrammarPoint, bool)
	VocabPack(id int) (VocabPack, bool)
	Vocab(ids []int) []Vocab
	SentencesByGrammar(grammarID int, style Style) []Sentence
	SentencesByLesson(lessonID int) []Sentence
	Sentence(id int) (Sentence, bool)
	PreviousLesson(id int) (Lesson, bool)
	NextLesson(id int) (Lesson, bool)
	FunVocab(level, limit int) []Vocab
}
