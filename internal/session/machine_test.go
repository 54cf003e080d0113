package session

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drill"
	"github.com/abhisek/kotoba/internal/drillgen"
	"github.com/abhisek/kotoba/internal/mastery"
	"github.com/abhisek/kotoba/internal/store"
)

// answerPhase answers and continues through every question of the current
// Step1/Step2 phase.
func answerPhase(t *testing.T, m *Machine, correct bool) {
	t.Helper()
	ctx := context.Background()
	start, err := m.Current()
	require.NoError(t, err)
	for {
		v, err := m.Current()
		require.NoError(t, err)
		if v.Phase != start.Phase {
			return
		}
		require.NotNil(t, v.Question, "question %s", v.ItemID)
		ans := "zzz"
		if correct {
			ans = correctAnswer(v.Question)
		}
		out, err := m.Answer(ctx, ans, 1200)
		require.NoError(t, err)
		assert.Equal(t, correct, out.Record.Correct)
		assert.Equal(t, v.Cursor+1 < v.Total, out.CanContinue)
		_, err = m.Continue(ctx)
		require.NoError(t, err)
	}
}

func TestMachine_FullSession(t *testing.T) {
	env := newTestEnv(t, nil)
	m := env.machine(nil)
	ctx := context.Background()

	v, err := m.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, Step1, v.Phase)
	assert.Equal(t, "g101_q1", v.ItemID)
	assert.Equal(t, 3, v.Total)

	answerPhase(t, m, true)
	v, _ = m.Current()
	require.Equal(t, Step2, v.Phase)
	answerPhase(t, m, true)

	v, _ = m.Current()
	require.Equal(t, Step3, v.Phase)
	require.Equal(t, 8, v.Total)
	require.NotNil(t, v.Vocab)
	assert.Equal(t, "rev_v1001_sense", v.ItemID)
	for i := 0; i < 8; i++ {
		out, err := m.SubmitVocab(ctx, true, 1500)
		require.NoError(t, err)
		assert.Equal(t, 7-i, out.Remaining)
	}

	v, _ = m.Current()
	require.Equal(t, Step4, v.Phase, "step3 advances by itself")
	require.NotNil(t, v.Sentence)
	assert.Equal(t, 5002, v.Sentence.ID)

	sub, err := m.SubmitSentence(ctx, []string{"k1", "k2", "k2", "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Hits)
	assert.Equal(t, 2, sub.Total)
	assert.True(t, sub.Passed)

	sub, err = m.SubmitSentence(ctx, nil)
	require.NoError(t, err)
	assert.False(t, sub.Passed)

	v, _ = m.Current()
	require.Equal(t, Step5, v.Phase)
	require.NotNil(t, v.Result)
	res := v.Result

	assert.Equal(t, PhaseScore{Correct: 3, Total: 3}, res.Step1)
	assert.Equal(t, PhaseScore{Correct: 2, Total: 2}, res.Step2)
	assert.Equal(t, PhaseScore{Correct: 8, Total: 8}, res.Step3)
	assert.Equal(t, PhaseScore{Correct: 1, Total: 2}, res.Step4)
	assert.Equal(t, 1500, res.VocabAvgMs)
	assert.Equal(t, 3, res.Stars) // 14/15
	assert.Equal(t, mastery.VerdictUp, res.Verdict)
	assert.Equal(t, 1, res.LevelBefore)
	assert.Equal(t, 2, res.LevelAfter)
	assert.Equal(t, 50, res.MasteryBefore)
	assert.Equal(t, 55, res.MasteryAfter)
	assert.Equal(t, 1, res.StreakDays)
	assert.Equal(t, []int{1002}, res.BlockingVocabIDs)
	assert.NotEmpty(t, res.Coach)

	up, err := env.store.ProgressRepo().UserProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, up.CurrentLevel)
	assert.Equal(t, 1, up.StreakDays)
	assert.Equal(t, "2026-03-10", up.LastCompletedDate)
	assert.Equal(t, 1, up.CurrentGrammarIndex, "grammar 101 reached the threshold")
	assert.Equal(t, 1, up.CurrentLessonID)

	vs, err := env.store.ProgressRepo().VocabState(ctx, 1002)
	require.NoError(t, err)
	require.NotNil(t, vs)
	assert.True(t, vs.Blocking)

	completed, err := env.store.ProgressRepo().CompletedDrills(ctx, 101)
	require.NoError(t, err)
	assert.Len(t, completed, 5)

	stats, err := env.store.EventRepo().AnswerStats(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stats)

	_, err = m.Answer(ctx, "a", 10)
	assert.ErrorIs(t, err, ErrSessionFinished)

	// Same day: the completed session comes back read-only.
	v, err = env.machine(nil).Start(ctx)
	require.NoError(t, err)
	assert.True(t, v.ReadOnly)
	assert.Equal(t, Step5, v.Phase)

	rev, err := m.Review(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, res.Stars, rev.Result.Stars)
}

func TestMachine_ResumesAfterRestart(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	m1 := env.machine(nil)
	v1, err := m1.Start(ctx)
	require.NoError(t, err)
	_, err = m1.Answer(ctx, "b", 900)
	require.NoError(t, err)
	before, err := m1.Session()
	require.NoError(t, err)

	m2 := env.machine(nil)
	v2, err := m2.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1.SessionID, v2.SessionID)
	assert.Equal(t, Step1, v2.Phase)
	assert.Equal(t, 0, v2.Cursor)
	require.NotNil(t, v2.Answer)
	assert.False(t, v2.Answer.Correct)

	after, err := m2.Session()
	require.NoError(t, err)
	assert.Equal(t, before.Plan.Step1, after.Plan.Step1)
	assert.Equal(t, before.Plan, after.Plan)

	v2, err = m2.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v2.Cursor)
	assert.Equal(t, "g101_q2", v2.ItemID)
}

func TestMachine_EventOrdering(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	m := env.machine(nil)

	_, err := m.Answer(ctx, "a", 1)
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = m.Start(ctx)
	require.NoError(t, err)

	_, err = m.Continue(ctx)
	assert.ErrorIs(t, err, ErrNotAnswered)

	_, err = m.SubmitVocab(ctx, true, 100)
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = m.SubmitSentence(ctx, nil)
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = m.Answer(ctx, "a", 100)
	require.NoError(t, err)
	_, err = m.Answer(ctx, "a", 100)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestMachine_SkipsMissingContent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	s := Session{
		ID: "resumed",
		Plan: Plan{
			Date: "2026-03-10", LessonID: 1, GrammarID: 101, Level: 1,
			Step1: QuestionPhase{QuestionIDs: []string{"g999_q1", "not-an-id", "g101_q1"}},
			Step2: QuestionPhase{QuestionIDs: []string{"g101_q4"}},
			Step4: SentencePhase{SentenceIDs: []int{4242}},
		},
		Phase:  Step1,
		Timing: Timing{StartedAt: testNow, LastEventAt: testNow},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, env.store.SessionRepo().SaveSession(ctx, &store.SessionRecord{
		ID: s.ID, Date: s.Plan.Date, Status: store.SessionOpen, Data: data,
	}))

	m := env.machine(nil)
	v, err := m.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "resumed", v.SessionID)
	assert.True(t, v.Missing)
	assert.Nil(t, v.Question)

	// Missing questions can be answered (recorded as skipped) or passed over.
	out, err := m.Answer(ctx, "a", 100)
	require.NoError(t, err)
	assert.True(t, out.Record.Skipped)
	_, err = m.Continue(ctx)
	require.NoError(t, err)
	v, err = m.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "g101_q1", v.ItemID)

	answerPhase(t, m, true)
	answerPhase(t, m, false)

	// Step3 is empty and passes straight to Step4.
	v, _ = m.Current()
	require.Equal(t, Step4, v.Phase)
	assert.True(t, v.Missing)
	sub, err := m.SubmitSentence(ctx, []string{"k1"})
	require.NoError(t, err)
	assert.True(t, sub.Skipped)

	v, _ = m.Current()
	require.Equal(t, Step5, v.Phase)
	assert.Equal(t, PhaseScore{Correct: 1, Total: 1}, v.Result.Step1, "skipped questions are not graded")
	assert.Equal(t, PhaseScore{Correct: 0, Total: 1}, v.Result.Step2)
	assert.Equal(t, PhaseScore{}, v.Result.Step4)
}

func TestMachine_MissingVocabIsSkipped(t *testing.T) {
	tests := []struct {
		name string
		skip func(ctx context.Context, m *Machine) error
	}{
		{
			name: "submitted",
			skip: func(ctx context.Context, m *Machine) error {
				out, err := m.SubmitVocab(ctx, false, 800)
				if err == nil {
					assert.True(t, out.Skipped)
					assert.False(t, out.Correct)
					assert.Equal(t, 1001, out.VocabID)
					assert.Equal(t, 7, out.Remaining)
				}
				return err
			},
		},
		{
			name: "continued",
			skip: func(ctx context.Context, m *Machine) error {
				_, err := m.Continue(ctx)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			ctx := context.Background()
			m := env.machine(nil)
			_, err := m.Start(ctx)
			require.NoError(t, err)
			answerPhase(t, m, true)
			answerPhase(t, m, true)
			v, err := m.Current()
			require.NoError(t, err)
			require.Equal(t, Step3, v.Phase)
			require.Equal(t, "rev_v1001_sense", v.ItemID)

			// The content is updated and word 1001 is gone.
			b := testBundle()
			b.Vocab = slices.DeleteFunc(b.Vocab, func(w content.Vocab) bool { return w.ID == 1001 })
			env.content = content.NewCatalog(b)
			m = env.machine(nil)
			v, err = m.Start(ctx)
			require.NoError(t, err)
			require.True(t, v.Missing)
			require.Nil(t, v.Vocab)

			require.NoError(t, tt.skip(ctx, m))

			st, err := env.store.ProgressRepo().VocabState(ctx, 1001)
			require.NoError(t, err)
			assert.Nil(t, st, "schedule untouched")

			s, err := m.Session()
			require.NoError(t, err)
			vp := s.Plan.Step3
			assert.Equal(t, 1, vp.Cursor)
			assert.Zero(t, vp.Correct)
			assert.Zero(t, vp.Wrong)
			assert.Zero(t, vp.AvgResponseMs)
			require.Len(t, vp.Answers, 1)
			assert.True(t, vp.Answers[0].Skipped)

			// Words with content still need an answer.
			v, err = m.Current()
			require.NoError(t, err)
			require.False(t, v.Missing)
			_, err = m.Continue(ctx)
			assert.ErrorIs(t, err, ErrNotAnswered)
		})
	}
}

func TestMachine_FailedSaveRollsBackAnswer(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	fail := false
	m := env.machineTx(nil, flakyTx{st: env.store, fail: &fail})

	v, err := m.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, v.Question)
	ans := correctAnswer(v.Question)

	fail = true
	_, err = m.Answer(ctx, ans, 700)
	require.EqualError(t, err, "disk full")

	gs, err := env.store.ProgressRepo().GrammarState(ctx, 101)
	require.NoError(t, err)
	assert.Nil(t, gs, "mastery update rolled back")
	done, err := env.store.ProgressRepo().CompletedDrills(ctx, 101)
	require.NoError(t, err)
	assert.Empty(t, done)
	stats, err := env.store.EventRepo().AnswerStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)

	v, err = m.Current()
	require.NoError(t, err)
	assert.Nil(t, v.Answer, "in-memory session unchanged")

	out, err := m.Answer(ctx, ans, 700)
	require.NoError(t, err)
	assert.True(t, out.Record.Correct)

	// A restart sees the answer exactly once.
	v, err = env.machine(nil).Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, v.Answer)
	gs, err = env.store.ProgressRepo().GrammarState(ctx, 101)
	require.NoError(t, err)
	require.NotNil(t, gs)
	assert.Equal(t, 10, gs.Mastery)
}

func TestMachine_FailedFinishRollsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	fail := false
	m := env.machineTx(nil, flakyTx{st: env.store, fail: &fail})

	_, err := m.Start(ctx)
	require.NoError(t, err)
	answerPhase(t, m, true)
	answerPhase(t, m, true)
	for {
		v, err := m.Current()
		require.NoError(t, err)
		if v.Phase != Step3 {
			break
		}
		_, err = m.SubmitVocab(ctx, true, 1000)
		require.NoError(t, err)
	}
	v, err := m.Current()
	require.NoError(t, err)
	require.Equal(t, Step4, v.Phase)
	for v.Cursor+1 < v.Total {
		_, err = m.SubmitSentence(ctx, []string{"k1", "k2", "k3"})
		require.NoError(t, err)
		v, err = m.Current()
		require.NoError(t, err)
	}
	cursor := v.Cursor

	fail = true
	_, err = m.SubmitSentence(ctx, []string{"k1", "k2", "k3"})
	require.EqualError(t, err, "disk full")

	up, err := env.store.ProgressRepo().UserProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultUserProgress(), up, "progress update rolled back")
	v, err = m.Current()
	require.NoError(t, err)
	assert.Equal(t, Step4, v.Phase)
	assert.Equal(t, cursor, v.Cursor)
	assert.Nil(t, v.Result)

	_, err = m.SubmitSentence(ctx, []string{"k1", "k2", "k3"})
	require.NoError(t, err)
	v, err = m.Current()
	require.NoError(t, err)
	require.NotNil(t, v.Result)
	assert.Equal(t, 1, v.Result.LevelBefore)

	up, err = env.store.ProgressRepo().UserProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, v.Result.LevelAfter, up.CurrentLevel)
	assert.Equal(t, 1, up.StreakDays)

	// The finished session is read-only after a restart; nothing is reapplied.
	v, err = env.machine(nil).Start(ctx)
	require.NoError(t, err)
	assert.True(t, v.ReadOnly)
	again, err := env.store.ProgressRepo().UserProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, up, again)
}

func TestMachine_EmptySentencePhaseNeedsContinue(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	s := Session{
		ID:    "no-sentences",
		Plan:  Plan{Date: "2026-03-10", LessonID: 1, GrammarID: 101, Level: 1},
		Phase: Step4,
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, env.store.SessionRepo().SaveSession(ctx, &store.SessionRecord{
		ID: s.ID, Date: s.Plan.Date, Status: store.SessionOpen, Data: data,
	}))

	m := env.machine(nil)
	v, err := m.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, Step4, v.Phase)
	assert.Empty(t, v.ItemID)

	_, err = m.SubmitSentence(ctx, nil)
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	v, err = m.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, Step5, v.Phase)

	rec, err := env.store.SessionRepo().CompletedSessionForDate(ctx, "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestMachine_GeneratedDrillSurvivesRestart(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	gen := choice(drillgen.NewID(101), "generated stem")
	gen.GrammarID = 101
	gen.Options[0].Text = "generated right"

	s := Session{
		ID: "gen",
		Plan: Plan{
			Date: "2026-03-10", LessonID: 1, GrammarID: 101, Level: 1,
			Step1:     QuestionPhase{QuestionIDs: []string{gen.ID}},
			Generated: []content.Drill{gen},
		},
		Phase: Step1,
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, env.store.SessionRepo().SaveSession(ctx, &store.SessionRecord{
		ID: s.ID, Date: s.Plan.Date, Status: store.SessionOpen, Data: data,
	}))

	cache := drillgen.NewCache(time.Hour)
	m := env.machine(cache)
	v, err := m.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, v.Question)
	assert.Equal(t, drill.SourceGenerated, v.Question.Source)
	assert.Equal(t, "generated stem", v.Question.Stem)
	assert.Equal(t, 1, cache.Len())
}

func completedRecord(t *testing.T, date string, lessonID int, accuracy float64) *store.SessionRecord {
	t.Helper()
	s := Session{
		ID:     "done-" + date,
		Plan:   Plan{Date: date, LessonID: lessonID},
		Phase:  Step5,
		Result: &Result{GrammarAccuracy: accuracy},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return &store.SessionRecord{
		ID: s.ID, Date: date, Status: store.SessionCompleted, GrammarAccuracy: accuracy, Data: data,
	}
}

func runPerfectSession(t *testing.T, m *Machine) *Result {
	t.Helper()
	ctx := context.Background()
	_, err := m.Start(ctx)
	require.NoError(t, err)
	answerPhase(t, m, true)
	answerPhase(t, m, true)
	for {
		v, err := m.Current()
		require.NoError(t, err)
		if v.Phase != Step3 {
			break
		}
		_, err = m.SubmitVocab(ctx, true, 1000)
		require.NoError(t, err)
	}
	for {
		v, err := m.Current()
		require.NoError(t, err)
		if v.Phase != Step4 {
			break
		}
		_, err = m.SubmitSentence(ctx, []string{"k1", "k2", "k3"})
		require.NoError(t, err)
	}
	v, err := m.Current()
	require.NoError(t, err)
	require.Equal(t, Step5, v.Phase)
	return v.Result
}

func TestMachine_UnlocksNextLesson(t *testing.T) {
	tests := []struct {
		name       string
		prior      []*store.SessionRecord
		wantLesson int
	}{
		{
			name:       "two strong sessions of the same lesson",
			prior:      []*store.SessionRecord{completedRecord(t, "2026-03-08", 1, 0.9), completedRecord(t, "2026-03-09", 1, 1)},
			wantLesson: 2,
		},
		{
			name:       "one weak session breaks the streak",
			prior:      []*store.SessionRecord{completedRecord(t, "2026-03-08", 1, 0.9), completedRecord(t, "2026-03-09", 1, 0.5)},
			wantLesson: 1,
		},
		{
			name:       "sessions from another lesson do not count",
			prior:      []*store.SessionRecord{completedRecord(t, "2026-03-08", 2, 1), completedRecord(t, "2026-03-09", 1, 1)},
			wantLesson: 1,
		},
		{
			name:       "not enough sessions",
			prior:      []*store.SessionRecord{completedRecord(t, "2026-03-09", 1, 1)},
			wantLesson: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			ctx := context.Background()
			for _, rec := range tt.prior {
				require.NoError(t, env.store.SessionRepo().SaveSession(ctx, rec))
			}

			res := runPerfectSession(t, env.machine(nil))

			up, err := env.store.ProgressRepo().UserProgress(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLesson, up.CurrentLessonID)
			if tt.wantLesson == 2 {
				assert.Equal(t, 2, res.UnlockedLessonID)
				assert.Equal(t, 0, up.CurrentGrammarIndex)
			} else {
				assert.Zero(t, res.UnlockedLessonID)
			}
		})
	}
}

func TestMachine_UnlockStreakOfOne(t *testing.T) {
	env := newTestEnv(t, nil)
	env.config.UnlockStreak = 1
	ctx := context.Background()
	// Older weak sessions do not matter when one strong session unlocks.
	require.NoError(t, env.store.SessionRepo().SaveSession(ctx, completedRecord(t, "2026-03-08", 1, 0.2)))
	require.NoError(t, env.store.SessionRepo().SaveSession(ctx, completedRecord(t, "2026-03-09", 2, 0.4)))

	res := runPerfectSession(t, env.machine(nil))
	assert.Equal(t, 2, res.UnlockedLessonID)

	up, err := env.store.ProgressRepo().UserProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, up.CurrentLessonID)
}

func TestMachine_StreakContinuesFromYesterday(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	streak, last := 4, "2026-03-09"
	require.NoError(t, env.store.ProgressRepo().UpdateUserProgress(ctx, store.ProgressUpdate{
		StreakDays: &streak, LastCompletedDate: &last,
	}))

	res := runPerfectSession(t, env.machine(nil))
	assert.Equal(t, 5, res.StreakDays)
}

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name string
		last string
		days int
		want int
	}{
		{"never completed", "", 0, 1},
		{"yesterday", "2026-03-09", 3, 4},
		{"across month end", "2026-02-28", 2, 3},
		{"gap", "2026-03-07", 9, 1},
		{"same day", "2026-03-10", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := "2026-03-10"
			if tt.name == "across month end" {
				date = "2026-03-01"
			}
			got := nextStreak(store.UserProgress{StreakDays: tt.days, LastCompletedDate: tt.last}, date)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		overall float64
		want    int
	}{
		{1, 3}, {0.9, 3}, {0.89, 2}, {0.7, 2}, {0.69, 1}, {0.4, 1}, {0.39, 0}, {0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stars(tt.overall), "overall %v", tt.overall)
	}
}

func TestPassPolicy(t *testing.T) {
	tests := []struct {
		name  string
		mode  PassMode
		hits  int
		total int
		want  bool
	}{
		{"any: count", PassAny, 3, 10, true},
		{"any: rate", PassAny, 2, 2, true},
		{"any: neither", PassAny, 2, 5, false},
		{"checked only", PassChecked, 2, 2, false},
		{"rate only", PassRate, 3, 10, false},
		{"rate boundary", PassRate, 7, 10, true},
		{"no key points", PassAny, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PassPolicy{MinChecked: 3, MinHitRate: 0.7, Mode: tt.mode}
			assert.Equal(t, tt.want, p.Passed(tt.hits, tt.total))
		})
	}
}
