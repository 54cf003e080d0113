package spacedrep

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/abhisek/kotoba/internal/store"
)

// mockProgressRepo is an in-memory ProgressRepo for tests.
type mockProgressRepo struct {
	grammar map[int]store.GrammarState
	vocab   map[int]store.VocabState
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{
		grammar: make(map[int]store.GrammarState),
		vocab:   make(map[int]store.VocabState),
	}
}

func (m *mockProgressRepo) UserProgress(_ context.Context) (store.UserProgress, error) {
	return store.DefaultUserProgress(), nil
}
func (m *mockProgressRepo) UpdateUserProgress(_ context.Context, _ store.ProgressUpdate) error {
	return nil
}
func (m *mockProgressRepo) GrammarState(_ context.Context, id int) (*store.GrammarState, error) {
	if s, ok := m.grammar[id]; ok {
		return &s, nil
	}
	return nil, nil
}
func (m *mockProgressRepo) VocabState(_ context.Context, id int) (*store.VocabState, error) {
	if s, ok := m.vocab[id]; ok {
		return &s, nil
	}
	return nil, nil
}
func (m *mockProgressRepo) VocabStates(_ context.Context, ids []int) (map[int]store.VocabState, error) {
	out := make(map[int]store.VocabState)
	for _, id := range ids {
		if s, ok := m.vocab[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}
func (m *mockProgressRepo) DueGrammar(_ context.Context, now time.Time, _ int) ([]store.GrammarState, error) {
	var out []store.GrammarState
	for _, s := range m.grammar {
		if IsDue(s.NextReviewAt, now) {
			out = append(out, s)
		}
	}
	// Map order is random; the scheduler must impose its own order.
	sort.Slice(out, func(i, j int) bool { return out[i].GrammarID > out[j].GrammarID })
	return out, nil
}
func (m *mockProgressRepo) DueVocab(_ context.Context, now time.Time, _ int) ([]store.VocabState, error) {
	var out []store.VocabState
	for _, s := range m.vocab {
		if IsDue(s.NextReviewAt, now) {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *mockProgressRepo) UpsertGrammarState(_ context.Context, s store.GrammarState) error {
	m.grammar[s.GrammarID] = s
	return nil
}
func (m *mockProgressRepo) UpsertVocabState(_ context.Context, s store.VocabState) error {
	m.vocab[s.VocabID] = s
	return nil
}
func (m *mockProgressRepo) CompletedDrills(_ context.Context, _ int) (map[string]bool, error) {
	return nil, nil
}
func (m *mockProgressRepo) MarkDrillCompleted(_ context.Context, _ int, _ string, _ time.Time) error {
	return nil
}
func (m *mockProgressRepo) Reset(_ context.Context) error { return nil }

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) *time.Time {
	t := testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
	return &t
}

func TestDueGrammar_MostOverdueFirst(t *testing.T) {
	repo := newMockProgressRepo()
	repo.grammar[1] = store.GrammarState{GrammarID: 1, NextReviewAt: daysAgo(1)}
	repo.grammar[2] = store.GrammarState{GrammarID: 2, NextReviewAt: daysAgo(5)}
	repo.grammar[3] = store.GrammarState{GrammarID: 3, NextReviewAt: daysAgo(5)}
	repo.grammar[4] = store.GrammarState{GrammarID: 4, NextReviewAt: daysAgo(-2)}
	repo.grammar[5] = store.GrammarState{GrammarID: 5}

	s := NewScheduler(repo, DefaultPolicy())
	due, err := s.DueGrammar(context.Background(), testNow, 0)
	if err != nil {
		t.Fatalf("DueGrammar: %v", err)
	}
	var ids []int
	for _, d := range due {
		ids = append(ids, d.GrammarID)
	}
	want := []int{5, 2, 3, 1}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}

	due, _ = s.DueGrammar(context.Background(), testNow, 2)
	if len(due) != 2 {
		t.Errorf("limit not applied: %d", len(due))
	}
}

func TestRecordGrammarAttempt(t *testing.T) {
	repo := newMockProgressRepo()
	s := NewScheduler(repo, DefaultPolicy())
	ctx := context.Background()

	st, err := s.RecordGrammarAttempt(ctx, 101, true, testNow)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if st.Mastery != 10 {
		t.Errorf("mastery = %d, want 10", st.Mastery)
	}
	if want := testNow.AddDate(0, 0, 1); !st.NextReviewAt.Equal(want) {
		t.Errorf("next = %v, want %v", st.NextReviewAt, want)
	}

	st, _ = s.RecordGrammarAttempt(ctx, 101, false, testNow)
	if st.Mastery != 0 {
		t.Errorf("mastery after wrong = %d, want 0", st.Mastery)
	}
	if !st.NextReviewAt.Equal(testNow) {
		t.Errorf("weak wrong should be due now")
	}
	if repo.grammar[101].Mastery != 0 {
		t.Error("state not persisted")
	}
}

func TestRecordVocabAttempt_WrongWindow(t *testing.T) {
	repo := newMockProgressRepo()
	s := NewScheduler(repo, DefaultPolicy())
	ctx := context.Background()

	s.RecordVocabAttempt(ctx, 7, false, testNow)
	st, _ := s.RecordVocabAttempt(ctx, 7, false, testNow.Add(24*time.Hour))
	if st.WrongCount != 2 {
		t.Errorf("wrong count = %d, want 2", st.WrongCount)
	}

	st, _ = s.RecordVocabAttempt(ctx, 7, false, testNow.Add(8*24*time.Hour))
	if st.WrongCount != 1 {
		t.Errorf("window should roll over, wrong count = %d", st.WrongCount)
	}
	if st.LastSeenAt == nil {
		t.Error("last seen not set")
	}
}

func TestMarkBlockingAndCorrectClears(t *testing.T) {
	repo := newMockProgressRepo()
	s := NewScheduler(repo, DefaultPolicy())
	ctx := context.Background()
	future := testNow.AddDate(0, 0, 10)
	repo.vocab[3] = store.VocabState{VocabID: 3, Strength: 60, NextReviewAt: &future}

	if err := s.MarkBlocking(ctx, 3, testNow); err != nil {
		t.Fatalf("mark blocking: %v", err)
	}
	st := repo.vocab[3]
	if !st.Blocking || !st.NextReviewAt.Equal(testNow) {
		t.Errorf("blocking word should be flagged and due now: %+v", st)
	}

	st, _ = s.RecordVocabAttempt(ctx, 3, true, testNow)
	if st.Blocking {
		t.Error("correct answer should clear blocking")
	}
}

func TestAdjustGrammar_Clamps(t *testing.T) {
	repo := newMockProgressRepo()
	repo.grammar[1] = store.GrammarState{GrammarID: 1, Mastery: 98}
	s := NewScheduler(repo, DefaultPolicy())

	st, _ := s.AdjustGrammar(context.Background(), 1, 5, testNow)
	if st.Mastery != 100 {
		t.Errorf("mastery = %d, want 100", st.Mastery)
	}
	st, _ = s.AdjustGrammar(context.Background(), 2, -5, testNow)
	if st.Mastery != 0 {
		t.Errorf("mastery = %d, want 0", st.Mastery)
	}
}

func TestRankVocab(t *testing.T) {
	repo := newMockProgressRepo()
	repo.vocab[1] = store.VocabState{VocabID: 1, NextReviewAt: daysAgo(-3)} // not due
	repo.vocab[2] = store.VocabState{VocabID: 2, NextReviewAt: daysAgo(1)}  // due
	repo.vocab[3] = store.VocabState{VocabID: 3, NextReviewAt: daysAgo(10)} // overdue
	repo.vocab[4] = store.VocabState{VocabID: 4, NextReviewAt: daysAgo(2), Blocking: true}
	repo.vocab[6] = store.VocabState{VocabID: 6, NextReviewAt: daysAgo(4)} // overdue

	s := NewScheduler(repo, DefaultPolicy())
	got, err := s.RankVocab(context.Background(), []int{1, 2, 3, 4, 5, 6, 2}, testNow)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	want := []int{3, 6, 4, 2, 5, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestWithRepo(t *testing.T) {
	base, other := newMockProgressRepo(), newMockProgressRepo()
	policy := DefaultPolicy()
	policy.CorrectDelta = 25
	s := NewScheduler(base, policy).WithRepo(other)

	if _, err := s.RecordGrammarAttempt(context.Background(), 101, true, testNow); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, ok := base.grammar[101]; ok {
		t.Error("write went to the original repo")
	}
	if got := other.grammar[101].Mastery; got != 25 {
		t.Errorf("mastery = %d, want 25 (policy kept)", got)
	}
}
