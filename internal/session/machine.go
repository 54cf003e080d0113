package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drill"
	"github.com/abhisek/kotoba/internal/drillgen"
	"github.com/abhisek/kotoba/internal/mastery"
	"github.com/abhisek/kotoba/internal/spacedrep"
	"github.com/abhisek/kotoba/internal/store"
)

const dateLayout = "2006-01-02"

// Deps are the collaborators of a Machine.
type Deps struct {
	Planner   *Planner
	Content   content.Repository
	Cache     *drillgen.Cache // shared with the generation service; nil creates one
	Sessions  store.SessionRepo
	Progress  store.ProgressRepo
	Events    store.EventRepo  // optional answer log
	Tx        store.Transactor // nil applies changes without a transaction
	Scheduler *spacedrep.Scheduler
	Assessor  mastery.Assessor
	Log       *slog.Logger
}

// Machine drives one learner through the day's session. Every mutation is
// serialized, and its progress updates and the session save commit
// together before it returns.
type Machine struct {
	mu sync.Mutex

	planner  *Planner
	content  content.Repository
	cache    *drillgen.Cache
	resolver *drill.Resolver
	sessions store.SessionRepo
	events   store.EventRepo
	tx       store.Transactor
	sched    *spacedrep.Scheduler
	assessor mastery.Assessor
	config   Config
	now      func() time.Time
	log      *slog.Logger

	cur      *Session
	readOnly bool
}

// NewMachine creates a Machine.
func NewMachine(d Deps, cfg Config) *Machine {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	if d.Cache == nil {
		d.Cache = drillgen.NewCache(0)
	}
	if d.Assessor == nil {
		d.Assessor = mastery.NewRuleAssessor(mastery.DefaultConfig())
	}
	if d.Tx == nil {
		d.Tx = directTx{progress: d.Progress, sessions: d.Sessions}
	}
	return &Machine{
		planner:  d.Planner,
		content:  d.Content,
		cache:    d.Cache,
		resolver: drill.NewResolver(d.Content, d.Cache),
		sessions: d.Sessions,
		events:   d.Events,
		tx:       d.Tx,
		sched:    d.Scheduler,
		assessor: d.Assessor,
		config:   cfg,
		now:      time.Now,
		log:      d.Log,
	}
}

// directTx applies changes straight to the machine's repositories.
type directTx struct {
	progress store.ProgressRepo
	sessions store.SessionRepo
}

func (d directTx) WithTx(_ context.Context, fn func(store.Tx) error) error { return fn(d) }
func (d directTx) ProgressRepo() store.ProgressRepo                       { return d.progress }
func (d directTx) SessionRepo() store.SessionRepo                         { return d.sessions }

// SetClock replaces the machine's clock.
func (m *Machine) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Start resumes today's open session, returns today's completed session
// read-only, or plans and persists a new one.
func (m *Machine) Start(ctx context.Context) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	date := now.Format(dateLayout)

	rec, err := m.sessions.OpenSessionForDate(ctx, date)
	if err != nil {
		return View{}, fmt.Errorf("loading open session: %w", err)
	}
	if rec != nil {
		s, err := decode(rec)
		if err != nil {
			return View{}, err
		}
		m.load(s, false)
		m.log.Debug("resumed session", "id", s.ID, "phase", s.Phase)
		return m.view(), nil
	}

	rec, err = m.sessions.CompletedSessionForDate(ctx, date)
	if err != nil {
		return View{}, fmt.Errorf("loading completed session: %w", err)
	}
	if rec != nil {
		s, err := decode(rec)
		if err != nil {
			return View{}, err
		}
		m.load(s, true)
		return m.view(), nil
	}

	plan, err := m.planner.Build(ctx, date, now)
	if err != nil {
		return View{}, err
	}
	s := &Session{
		ID:     uuid.New().String(),
		Plan:   *plan,
		Phase:  Step1,
		Timing: Timing{StartedAt: now, LastEventAt: now},
	}
	if err := saveSession(ctx, m.sessions, s); err != nil {
		return View{}, err
	}
	m.load(s, false)
	m.log.Info("started session", "id", s.ID, "date", date)
	return m.view(), nil
}

// Review loads the completed session for date as read-only.
func (m *Machine) Review(ctx context.Context, date string) (*Session, error) {
	rec, err := m.sessions.CompletedSessionForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading session for %s: %w", date, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w %s", ErrNoSession, date)
	}
	return decode(rec)
}

// Current returns a view of the current item.
func (m *Machine) Current() (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return View{}, ErrNotStarted
	}
	return m.view(), nil
}

// Session returns a copy of the loaded session document.
func (m *Machine) Session() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return Session{}, ErrNotStarted
	}
	return *m.cur, nil
}

// AnswerOutcome is the feedback for one Step1/Step2 answer.
type AnswerOutcome struct {
	Record      AnswerRecord
	Question    *drill.Question // nil when the question was skipped
	CanContinue bool            // more questions remain in the phase
}

// Answer grades answer against the current Step1/Step2 question. A
// question whose content is missing is recorded as skipped.
func (m *Machine) Answer(ctx context.Context, answer string, responseMs int64) (*AnswerOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	qp, err := m.questionPhase()
	if err != nil {
		return nil, err
	}
	if qp.Exhausted() {
		return nil, ErrUnknownQuestion
	}
	if qp.CurrentAnswered() {
		return nil, ErrAlreadyAnswered
	}

	id := qp.QuestionIDs[qp.Cursor]
	q := m.resolve(id)
	rec := AnswerRecord{QuestionID: id, Selected: answer, ResponseMs: responseMs}
	if q == nil {
		rec.Skipped = true
	} else {
		rec.CorrectID = q.CorrectOptionID
		if !q.HasOptions() {
			rec.CorrectID = q.CorrectAnswer
		}
		rec.Correct = q.Check(answer)
	}

	var out *AnswerOutcome
	err = m.apply(ctx, func(c *change) error {
		qp := c.s.questions()
		if q != nil {
			if err := c.recordQuestion(ctx, id, q, rec.Correct, responseMs); err != nil {
				return err
			}
		}
		qp.Answers = append(qp.Answers, rec)
		out = &AnswerOutcome{
			Record:      rec,
			Question:    q,
			CanContinue: qp.Cursor+1 < len(qp.QuestionIDs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Continue moves past the current item, or finishes a session whose Step4
// has nothing left to submit. An unanswered Step1/Step2 question or Step3
// word is only passed over when its content is missing.
func (m *Machine) Continue(ctx context.Context) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.mutable(); err != nil {
		return View{}, err
	}

	var fn func(c *change) error
	switch m.cur.Phase {
	case Step1, Step2:
		qp := m.cur.questions()
		if !qp.Exhausted() && !qp.CurrentAnswered() && m.resolve(qp.QuestionIDs[qp.Cursor]) != nil {
			return View{}, ErrNotAnswered
		}
		fn = func(c *change) error {
			qp := c.s.questions()
			if !qp.Exhausted() {
				if !qp.CurrentAnswered() {
					qp.Answers = append(qp.Answers, AnswerRecord{QuestionID: qp.QuestionIDs[qp.Cursor], Skipped: true})
				}
				qp.Cursor++
			}
			if qp.Exhausted() {
				return c.advance(ctx)
			}
			return nil
		}
	case Step3:
		vp := &m.cur.Plan.Step3
		if !vp.Exhausted() && m.vocabQuiz(vp) != nil {
			return View{}, ErrNotAnswered
		}
		fn = func(c *change) error {
			return c.skipVocab(ctx)
		}
	case Step4:
		if !m.cur.Plan.Step4.Exhausted() {
			return View{}, ErrWrongPhase
		}
		fn = func(c *change) error {
			return c.finish(ctx)
		}
	default:
		return View{}, ErrWrongPhase
	}

	if err := m.apply(ctx, fn); err != nil {
		return View{}, err
	}
	return m.view(), nil
}

// VocabOutcome is the feedback for one Step3 item.
type VocabOutcome struct {
	VocabID   int
	Correct   bool
	Skipped   bool // the word's content is missing; nothing was graded
	Remaining int
}

// SubmitVocab records the learner's result on the current Step3 item. A
// word whose content is missing is skipped without touching its schedule.
// The phase advances by itself after the last item.
func (m *Machine) SubmitVocab(ctx context.Context, correct bool, responseMs int64) (*VocabOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.mutable(); err != nil {
		return nil, err
	}
	if m.cur.Phase != Step3 {
		return nil, ErrWrongPhase
	}
	vp := &m.cur.Plan.Step3
	if vp.Exhausted() {
		return nil, ErrUnknownQuestion
	}

	out := &VocabOutcome{VocabID: vp.VocabIDs[vp.Cursor]}
	missing := m.vocabQuiz(vp) == nil
	err := m.apply(ctx, func(c *change) error {
		vp := &c.s.Plan.Step3
		if missing {
			out.Skipped = true
			out.Remaining = len(vp.VocabIDs) - vp.Cursor - 1
			return c.skipVocab(ctx)
		}

		vp.record(out.VocabID, correct, responseMs)
		if _, err := c.sched.RecordVocabAttempt(ctx, out.VocabID, correct, c.now); err != nil {
			return err
		}
		c.logAnswer(store.AnswerEventData{
			ItemID:     drill.VocabSense(out.VocabID).String(),
			VocabID:    out.VocabID,
			Correct:    correct,
			ResponseMs: responseMs,
		})
		out.Correct = correct
		out.Remaining = len(vp.VocabIDs) - vp.Cursor
		if vp.Exhausted() {
			return c.advance(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitSentence checks the key points the learner ticked for the current
// Step4 sentence. The session finishes after the last sentence.
func (m *Machine) SubmitSentence(ctx context.Context, checked []string) (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.mutable(); err != nil {
		return nil, err
	}
	if m.cur.Phase != Step4 {
		return nil, ErrWrongPhase
	}
	sp := &m.cur.Plan.Step4
	if sp.Exhausted() {
		return nil, ErrUnknownQuestion
	}

	sid := sp.SentenceIDs[sp.Cursor]
	sub := Submission{SentenceID: sid, Checked: checked}
	s, ok := m.content.Sentence(sid)
	if ok {
		sub.Hits, sub.Total = keyPointHits(s, checked)
		sub.Passed = m.config.Pass.Passed(sub.Hits, sub.Total)
	} else {
		m.log.Debug("sentence missing from content", "sentence", sid)
		sub.Skipped = true
	}

	err := m.apply(ctx, func(c *change) error {
		if ok {
			c.logAnswer(store.AnswerEventData{
				ItemID:    strconv.Itoa(sid),
				GrammarID: c.s.Plan.GrammarID,
				Correct:   sub.Passed,
			})
		}
		sp := &c.s.Plan.Step4
		sp.Submissions = append(sp.Submissions, sub)
		sp.Cursor++
		if sp.Exhausted() {
			return c.finish(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// keyPointHits counts distinct checked ids that are key points of s.
func keyPointHits(s content.Sentence, checked []string) (hits, total int) {
	valid := make(map[string]bool, len(s.KeyPoints))
	for _, kp := range s.KeyPoints {
		valid[kp.ID] = true
	}
	seen := map[string]bool{}
	for _, id := range checked {
		if valid[id] && !seen[id] {
			seen[id] = true
			hits++
		}
	}
	return hits, len(s.KeyPoints)
}

func (m *Machine) questionPhase() (*QuestionPhase, error) {
	if err := m.mutable(); err != nil {
		return nil, err
	}
	if qp := m.cur.questions(); qp != nil {
		return qp, nil
	}
	return nil, ErrWrongPhase
}

func (m *Machine) mutable() error {
	if m.cur == nil {
		return ErrNotStarted
	}
	if m.readOnly || m.cur.Finished() {
		return ErrSessionFinished
	}
	return nil
}

// resolve returns the question for id, or nil when its content is missing
// or the id cannot be parsed.
func (m *Machine) resolve(id string) *drill.Question {
	q, ok, err := m.resolver.Resolve(id)
	if err != nil {
		m.log.Warn("unresolvable question id", "id", id, "err", err)
		return nil
	}
	if !ok {
		m.log.Debug("question content missing", "id", id)
		return nil
	}
	return q
}

// vocabQuiz returns the quiz for the current Step3 word, or nil when its
// content is missing.
func (m *Machine) vocabQuiz(vp *VocabPhase) *drill.VocabQuiz {
	id := drill.VocabSense(vp.VocabIDs[vp.Cursor]).String()
	quiz, ok, err := m.resolver.VocabQuiz(id, m.content.Vocab(vp.VocabIDs))
	if err != nil || !ok {
		m.log.Debug("vocab content missing", "id", id)
		return nil
	}
	return quiz
}

func (m *Machine) load(s *Session, readOnly bool) {
	for _, d := range s.Plan.Generated {
		if _, ok := m.cache.Get(d.ID); !ok {
			m.cache.Set(d)
		}
	}
	m.cur = s
	m.readOnly = readOnly || s.Finished()
}

// apply runs fn against a copy of the current session. The progress
// writes fn makes and the session save share one transaction, and the copy
// replaces the current session only after it commits. Answer events are
// appended once the transaction is done.
func (m *Machine) apply(ctx context.Context, fn func(c *change) error) error {
	next, err := m.cur.clone()
	if err != nil {
		return err
	}
	var events []store.AnswerEventData
	err = m.tx.WithTx(ctx, func(tx store.Tx) error {
		c := &change{
			m:        m,
			s:        next,
			progress: tx.ProgressRepo(),
			sessions: tx.SessionRepo(),
			sched:    m.sched.WithRepo(tx.ProgressRepo()),
			now:      m.now(),
		}
		if err := fn(c); err != nil {
			return err
		}
		c.touch()
		events = c.events
		return saveSession(ctx, c.sessions, next)
	})
	if err != nil {
		return err
	}

	m.cur = next
	if m.events != nil {
		for _, ev := range events {
			if err := m.events.AppendAnswerEvent(ctx, ev); err != nil {
				m.log.Warn("failed to record answer event", "err", err)
			}
		}
	}
	return nil
}

// change is one state transition in progress: a working copy of the
// session and repositories bound to the transaction that persists it.
type change struct {
	m        *Machine
	s        *Session
	progress store.ProgressRepo
	sessions store.SessionRepo
	sched    *spacedrep.Scheduler
	now      time.Time
	events   []store.AnswerEventData
}

// recordQuestion applies the per-attempt progress updates for a graded question.
func (c *change) recordQuestion(ctx context.Context, raw string, q *drill.Question, correct bool, responseMs int64) error {
	if q.GrammarID != 0 {
		if _, err := c.sched.RecordGrammarAttempt(ctx, q.GrammarID, correct, c.now); err != nil {
			return err
		}
	}
	if id, err := drill.Parse(raw); err == nil && id.Kind == drill.KindFixed {
		if err := c.progress.MarkDrillCompleted(ctx, id.GrammarID, id.DrillID, c.now); err != nil {
			return err
		}
	}
	c.logAnswer(store.AnswerEventData{
		ItemID:     raw,
		GrammarID:  q.GrammarID,
		Correct:    correct,
		ResponseMs: responseMs,
	})
	return nil
}

// skipVocab passes over the current Step3 word without grading it.
func (c *change) skipVocab(ctx context.Context) error {
	vp := &c.s.Plan.Step3
	if !vp.Exhausted() {
		vp.skip(vp.VocabIDs[vp.Cursor])
	}
	if vp.Exhausted() {
		return c.advance(ctx)
	}
	return nil
}

// advance moves to the next phase. An empty Step3 is passed straight
// through; entering Step5 finishes the session.
func (c *change) advance(ctx context.Context) error {
	c.s.Phase++
	if c.s.Phase == Step3 && c.s.Plan.Step3.Exhausted() {
		c.s.Phase++
	}
	if c.s.Phase == Step5 {
		return c.finish(ctx)
	}
	return nil
}

// touch adds the time since the last event, capped at MaxIdle.
func (c *change) touch() {
	gap := c.now.Sub(c.s.Timing.LastEventAt)
	if gap < 0 {
		gap = 0
	}
	if maxIdle := c.m.config.MaxIdle; maxIdle > 0 && gap > maxIdle {
		gap = maxIdle
	}
	c.s.Timing.ElapsedMs += gap.Milliseconds()
	c.s.Timing.LastEventAt = c.now
}

func (c *change) logAnswer(ev store.AnswerEventData) {
	ev.SessionID = c.s.ID
	ev.Phase = c.s.Phase.String()
	c.events = append(c.events, ev)
}

func saveSession(ctx context.Context, repo store.SessionRepo, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	rec := &store.SessionRecord{
		ID:     s.ID,
		Date:   s.Plan.Date,
		Status: store.SessionOpen,
		Data:   data,
	}
	if s.Result != nil {
		rec.Status = store.SessionCompleted
		rec.GrammarAccuracy = s.Result.GrammarAccuracy
	}
	return repo.SaveSession(ctx, rec)
}

func decode(rec *store.SessionRecord) (*Session, error) {
	var s Session
	if err := json.Unmarshal(rec.Data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", rec.ID, err)
	}
	return &s, nil
}
