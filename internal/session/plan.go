package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/mastery"
)

// Phase is one of the five ordered sections of a daily session.
type Phase int

const (
	Step1 Phase = iota + 1 // grammar drill
	Step2                  // transfer
	Step3                  // vocab combo
	Step4                  // sentence application
	Step5                  // summary
)

func (p Phase) String() string {
	switch p {
	case Step1:
		return "step1"
	case Step2:
		return "step2"
	case Step3:
		return "step3"
	case Step4:
		return "step4"
	case Step5:
		return "step5"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Title is the learner-facing phase name.
func (p Phase) Title() string {
	switch p {
	case Step1:
		return "Grammar Drill"
	case Step2:
		return "Transfer"
	case Step3:
		return "Vocab Combo"
	case Step4:
		return "Sentence Application"
	case Step5:
		return "Summary"
	}
	return p.String()
}

// AnswerRecord is one answered Step1/Step2 question.
type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Selected   string `json:"selected"`
	CorrectID  string `json:"correct_id"`
	Correct    bool   `json:"correct"`
	Skipped    bool   `json:"skipped,omitempty"`
	ResponseMs int64  `json:"response_ms"`
}

// QuestionPhase is the state of Step1 or Step2. Answers only grow.
type QuestionPhase struct {
	QuestionIDs []string       `json:"question_ids"`
	Cursor      int            `json:"cursor"`
	Answers     []AnswerRecord `json:"answers"`
}

// Exhausted reports whether the cursor is past the last question.
func (q *QuestionPhase) Exhausted() bool {
	return q.Cursor >= len(q.QuestionIDs)
}

// CurrentAnswered reports whether the question under the cursor has an answer.
func (q *QuestionPhase) CurrentAnswered() bool {
	return len(q.Answers) > q.Cursor
}

// Score counts correct and graded answers, ignoring skipped ones.
func (q *QuestionPhase) Score() (correct, total int) {
	for _, a := range q.Answers {
		if a.Skipped {
			continue
		}
		total++
		if a.Correct {
			correct++
		}
	}
	return correct, total
}

// VocabAnswer is one Step3 item result.
type VocabAnswer struct {
	VocabID    int   `json:"vocab_id"`
	Correct    bool  `json:"correct"`
	Skipped    bool  `json:"skipped,omitempty"`
	ResponseMs int64 `json:"response_ms"`
}

// VocabPhase is the state of Step3.
type VocabPhase struct {
	PackID        int           `json:"pack_id"`
	VocabIDs      []int         `json:"vocab_ids"`
	Cursor        int           `json:"cursor"`
	Correct       int           `json:"correct"`
	Wrong         int           `json:"wrong"`
	AvgResponseMs float64       `json:"avg_response_ms"`
	Streak        int           `json:"streak"`
	BestStreak    int           `json:"best_streak"`
	Answers       []VocabAnswer `json:"answers"`
}

// Exhausted reports whether every item has been answered.
func (v *VocabPhase) Exhausted() bool {
	return v.Cursor >= len(v.VocabIDs)
}

func (v *VocabPhase) record(vid int, correct bool, responseMs int64) {
	v.Answers = append(v.Answers, VocabAnswer{VocabID: vid, Correct: correct, ResponseMs: responseMs})
	if correct {
		v.Correct++
		v.Streak++
		v.BestStreak = max(v.BestStreak, v.Streak)
	} else {
		v.Wrong++
		v.Streak = 0
	}
	n := float64(v.Correct + v.Wrong)
	v.AvgResponseMs += (float64(responseMs) - v.AvgResponseMs) / n
	v.Cursor++
}

// skip passes over a word whose content is missing. Skips are not graded
// and leave the counters, average and streak alone.
func (v *VocabPhase) skip(vid int) {
	v.Answers = append(v.Answers, VocabAnswer{VocabID: vid, Skipped: true})
	v.Cursor++
}

// Submission is one Step4 sentence check.
type Submission struct {
	SentenceID int      `json:"sentence_id"`
	Checked    []string `json:"checked"`
	Hits       int      `json:"hits"`
	Total      int      `json:"total"`
	Passed     bool     `json:"passed"`
	Skipped    bool     `json:"skipped,omitempty"`
}

// SentencePhase is the state of Step4.
type SentencePhase struct {
	SentenceIDs []int        `json:"sentence_ids"`
	Cursor      int          `json:"cursor"`
	Submissions []Submission `json:"submissions"`
}

// Exhausted reports whether every sentence has been submitted.
func (s *SentencePhase) Exhausted() bool {
	return s.Cursor >= len(s.SentenceIDs)
}

// Plan is the day's content plus per-phase progress.
type Plan struct {
	Date      string `json:"date"`
	LessonID  int    `json:"lesson_id"`
	GrammarID int    `json:"grammar_id"`
	Level     int    `json:"level"`

	Step1 QuestionPhase `json:"step1"`
	Step2 QuestionPhase `json:"step2"`
	Step3 VocabPhase    `json:"step3"`
	Step4 SentencePhase `json:"step4"`

	// Generated holds drills produced for this plan so their ids still
	// resolve after a restart.
	Generated []content.Drill `json:"generated,omitempty"`
}

// Timing tracks active time spent in the session.
type Timing struct {
	StartedAt   time.Time `json:"started_at"`
	LastEventAt time.Time `json:"last_event_at"`
	ElapsedMs   int64     `json:"elapsed_ms"`
}

// PhaseScore is the correct/total count of one phase.
type PhaseScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns Correct/Total, or 0 when nothing was graded.
func (s PhaseScore) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Result is the scored outcome computed on entering Step5.
type Result struct {
	Stars int `json:"stars"`

	Step1 PhaseScore `json:"step1"`
	Step2 PhaseScore `json:"step2"`
	Step3 PhaseScore `json:"step3"`
	Step4 PhaseScore `json:"step4"` // passed / submitted

	VocabAvgMs      int     `json:"vocab_avg_ms"`
	GrammarAccuracy float64 `json:"grammar_accuracy"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	Fluency         float64 `json:"fluency"`

	Verdict     mastery.Verdict `json:"verdict"`
	LevelBefore int             `json:"level_before"`
	LevelAfter  int             `json:"level_after"`

	MasteryBefore int `json:"mastery_before"`
	MasteryAfter  int `json:"mastery_after"`

	StreakDays       int   `json:"streak_days"`
	UnlockedLessonID int   `json:"unlocked_lesson_id,omitempty"`
	BlockingVocabIDs []int `json:"blocking_vocab_ids,omitempty"`

	Coach string `json:"coach"`
}

// Session is the persisted document for one day.
type Session struct {
	ID          string     `json:"id"`
	Plan        Plan       `json:"plan"`
	Phase       Phase      `json:"phase"`
	Timing      Timing     `json:"timing"`
	Result      *Result    `json:"result,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Finished reports whether the session reached the summary.
func (s *Session) Finished() bool {
	return s.Phase == Step5
}

// questions returns the Step1 or Step2 state, or nil in other phases.
func (s *Session) questions() *QuestionPhase {
	switch s.Phase {
	case Step1:
		return &s.Plan.Step1
	case Step2:
		return &s.Plan.Step2
	}
	return nil
}

// clone returns a deep copy through the persisted encoding.
func (s *Session) clone() (*Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copying session: %w", err)
	}
	return &out, nil
}
