package session

import (
	"strconv"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drill"
)

// View is what a front end needs to render the current item.
type View struct {
	SessionID string
	Date      string
	Phase     Phase
	Cursor    int
	Total     int
	ReadOnly  bool

	// ItemID is the id of the current question, vocab item or sentence.
	// Empty when the phase has nothing left.
	ItemID string

	// Missing is set when the current item's content cannot be found.
	Missing bool

	Question *drill.Question   // Step1, Step2
	Answer   *AnswerRecord     // Step1, Step2 once answered
	Vocab    *drill.VocabQuiz  // Step3
	Sentence *content.Sentence // Step4
	Result   *Result           // Step5
}

func (m *Machine) view() View {
	s := m.cur
	v := View{
		SessionID: s.ID,
		Date:      s.Plan.Date,
		Phase:     s.Phase,
		ReadOnly:  m.readOnly,
		Result:    s.Result,
	}

	switch s.Phase {
	case Step1, Step2:
		qp := s.questions()
		v.Cursor, v.Total = qp.Cursor, len(qp.QuestionIDs)
		if qp.Exhausted() {
			break
		}
		v.ItemID = qp.QuestionIDs[qp.Cursor]
		v.Question = m.resolve(v.ItemID)
		v.Missing = v.Question == nil
		if qp.CurrentAnswered() {
			a := qp.Answers[qp.Cursor]
			v.Answer = &a
		}

	case Step3:
		vp := &s.Plan.Step3
		v.Cursor, v.Total = vp.Cursor, len(vp.VocabIDs)
		if vp.Exhausted() {
			break
		}
		v.ItemID = drill.VocabSense(vp.VocabIDs[vp.Cursor]).String()
		v.Vocab = m.vocabQuiz(vp)
		v.Missing = v.Vocab == nil

	case Step4:
		sp := &s.Plan.Step4
		v.Cursor, v.Total = sp.Cursor, len(sp.SentenceIDs)
		if sp.Exhausted() {
			break
		}
		sent, ok := m.content.Sentence(sp.SentenceIDs[sp.Cursor])
		v.ItemID = strconv.Itoa(sp.SentenceIDs[sp.Cursor])
		if !ok {
			v.Missing = true
			break
		}
		v.Sentence = &sent
	}
	return v
}
