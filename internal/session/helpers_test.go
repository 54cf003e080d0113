package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drill"
	"github.com/abhisek/kotoba/internal/drillgen"
	"github.com/abhisek/kotoba/internal/spacedrep"
	"github.com/abhisek/kotoba/internal/store"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func choice(id, stem string) content.Drill {
	return content.Drill{
		ID: id, Kind: content.KindChoice, Stem: stem,
		Options:         []content.Option{{ID: "a", Text: "right"}, {ID: "b", Text: "wrong"}},
		CorrectOptionID: "a",
	}
}

func vocabRange(from, to, level int, tags ...string) []content.Vocab {
	var out []content.Vocab
	for id := from; id <= to; id++ {
		out = append(out, content.Vocab{
			ID: id, Surface: "w" + strconv.Itoa(id), Meanings: []string{"meaning " + strconv.Itoa(id)},
			Level: level, Tags: tags,
		})
	}
	return out
}

func ids(from, to int) []int {
	var out []int
	for id := from; id <= to; id++ {
		out = append(out, id)
	}
	return out
}

// testBundle is a small content graph:
//
//	lesson 1: grammar 101 (5 drills), 102 (1 drill); pack 10 = 1001..1004
//	lesson 2: grammar 201 (3 drills); pack 20 = 2001..2012
//	lesson 3: no grammar
func testBundle() *content.Bundle {
	vocab := vocabRange(1001, 1004, 1)
	vocab = append(vocab, vocabRange(2001, 2012, 2)...)
	vocab = append(vocab, vocabRange(9001, 9002, 1, content.FunTag)...)
	vocab = append(vocab, vocabRange(9003, 9003, 3, content.FunTag)...)
	vocab = append(vocab, vocabRange(9004, 9005, 1, content.FunTag)...)

	return &content.Bundle{
		Version: "v1.0.0",
		Lessons: []content.Lesson{
			{ID: 1, Title: "Topics", GrammarIDs: []int{101, 102}, VocabPackIDs: []int{10}},
			{ID: 2, Title: "Existence", GrammarIDs: []int{201}, VocabPackIDs: []int{20}},
			{ID: 3, Title: "Empty"},
		},
		Grammar: []content.GrammarPoint{
			{
				ID: 101, LessonID: 1, Name: "AはBです", CoreRule: "は marks the topic", Level: 1,
				Drills: []content.Drill{
					choice("g101_q1", "stem 1"),
					{ID: "g101_q2", Kind: content.KindJudge, Stem: "stem 2", CorrectAnswer: "true"},
					{ID: "g101_q3", Kind: content.KindFill, Stem: "stem 3", CorrectAnswer: "は"},
					choice("g101_q4", "stem 4"),
					choice("g101_q5", "stem 5"),
				},
			},
			{
				ID: 102, LessonID: 1, Name: "AもBです", CoreRule: "も means also", Level: 1,
				Drills:          []content.Drill{choice("g102_q1", "also 1")},
				CounterExamples: []content.CounterExample{{Sentence: "× わたしもはがくせいです。", Hint: "も replaces は"}},
				Examples: []content.Example{
					{Sentence: "○ わたしもがくせいです。"},
					{Sentence: "○ これもほんです。"},
				},
			},
			{
				ID: 201, LessonID: 2, Name: "あります", CoreRule: "あります for things", Level: 2,
				Drills: []content.Drill{choice("g201_q1", "exist 1"), choice("g201_q2", "exist 2"), choice("g201_q3", "exist 3")},
			},
		},
		Vocab: vocab,
		Packs: []content.VocabPack{
			{ID: 10, VocabIDs: ids(1001, 1004), Level: 1},
			{ID: 20, VocabIDs: ids(2001, 2012), Level: 2},
		},
		Sentences: []content.Sentence{
			{ID: 5001, Style: content.StyleImmersive, LessonID: 1, Level: 5, GrammarIDs: []int{101}},
			{ID: 5002, Style: content.StyleImmersive, LessonID: 1, Level: 1, GrammarIDs: []int{101},
				KeyPoints: []content.KeyPoint{{ID: "k1"}, {ID: "k2"}}},
			{ID: 5005, Style: content.StyleImmersive, LessonID: 1, Level: 2, GrammarIDs: []int{101},
				KeyPoints:        []content.KeyPoint{{ID: "k1"}, {ID: "k2"}, {ID: "k3"}},
				BlockingVocabIDs: []int{1002}},
			{ID: 5006, Style: content.StyleImmersive, LessonID: 1, Level: 1, GrammarIDs: []int{101}},
			{ID: 5003, Style: content.StyleTextbook, LessonID: 1, Level: 4, GrammarIDs: []int{102}},
			{ID: 5004, Style: content.StyleImmersive, LessonID: 2, Level: 2},
		},
	}
}

type testEnv struct {
	store   *store.Store
	content *content.Catalog
	sched   *spacedrep.Scheduler
	planner *Planner
	config  Config
}

func newTestEnv(t *testing.T, gen *drillgen.Service) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat := content.NewCatalog(testBundle())
	sched := spacedrep.NewScheduler(st.ProgressRepo(), spacedrep.DefaultPolicy())
	cfg := DefaultConfig()
	p := NewPlanner(cat, st.ProgressRepo(), sched, gen, cfg, nil)
	p.SetRand(rand.New(rand.NewPCG(1, 2)))
	return &testEnv{store: st, content: cat, sched: sched, planner: p, config: cfg}
}

func (e *testEnv) machine(cache *drillgen.Cache) *Machine {
	return e.machineTx(cache, e.store)
}

func (e *testEnv) machineTx(cache *drillgen.Cache, tx store.Transactor) *Machine {
	m := NewMachine(Deps{
		Planner:   e.planner,
		Content:   e.content,
		Cache:     cache,
		Sessions:  e.store.SessionRepo(),
		Progress:  e.store.ProgressRepo(),
		Events:    e.store.EventRepo(),
		Tx:        tx,
		Scheduler: e.sched,
	}, e.config)
	m.SetClock(func() time.Time { return testNow })
	return m
}

func (e *testEnv) setGrammar(t *testing.T, gid, mastery int, next *time.Time) {
	t.Helper()
	require.NoError(t, e.store.ProgressRepo().UpsertGrammarState(context.Background(), store.GrammarState{
		GrammarID: gid, Mastery: mastery, NextReviewAt: next, UpdatedAt: testNow,
	}))
}

// flakyTx wraps the store's transactions and fails the next SaveSession
// while *fail is set.
type flakyTx struct {
	st   *store.Store
	fail *bool
}

func (f flakyTx) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	return f.st.WithTx(ctx, func(tx store.Tx) error {
		return fn(flakyRepos{Tx: tx, fail: f.fail})
	})
}

type flakyRepos struct {
	store.Tx
	fail *bool
}

func (r flakyRepos) SessionRepo() store.SessionRepo {
	return flakySessions{SessionRepo: r.Tx.SessionRepo(), fail: r.fail}
}

type flakySessions struct {
	store.SessionRepo
	fail *bool
}

func (f flakySessions) SaveSession(ctx context.Context, rec *store.SessionRecord) error {
	if *f.fail {
		*f.fail = false
		return errors.New("disk full")
	}
	return f.SessionRepo.SaveSession(ctx, rec)
}

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func correctAnswer(q *drill.Question) string {
	if q.HasOptions() {
		return q.CorrectOptionID
	}
	return q.CorrectAnswer
}
