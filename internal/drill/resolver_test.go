package drill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drillgen"
)

func testCatalog() *content.Catalog {
	return content.NewCatalog(&content.Bundle{
		Version: "v1.0.0",
		Lessons: []content.Lesson{{ID: 1, GrammarIDs: []int{101, 102, 103}, VocabPackIDs: []int{10}}},
		Grammar: []content.GrammarPoint{
			{
				ID:       101,
				LessonID: 1,
				Name:     "AはBです",
				CoreRule: "は marks the topic",
				Drills: []content.Drill{
					{ID: "g101_q1", Kind: content.KindChoice, Stem: "わたし＿学生です。",
						Options:         []content.Option{{ID: "a", Text: "は"}, {ID: "b", Text: "を"}},
						CorrectOptionID: "a"},
					{ID: "g101_q2", Kind: content.KindJudge, Stem: "わたしは学生です。", CorrectAnswer: "true"},
					{ID: "g101_q3", Kind: content.KindJudge, Stem: "わたしを学生です。", CorrectAnswer: "false"},
					{ID: "g101_q4", Kind: content.KindReorder, Stem: "です / 学生 / わたしは", CorrectAnswer: "わたしは学生です"},
				},
				CounterExamples: []content.CounterExample{{Sentence: "× わたしが学生は。", Hint: "は follows the topic."}},
				Examples: []content.Example{
					{Sentence: "○ わたしは学生です。"},
					{Sentence: "○ 田中さんは先生です。"},
					{Sentence: "これは本です。"},
					{Sentence: "それはペンです。"},
				},
			},
			{ID: 102, LessonID: 1, Name: "AもBです", CoreRule: "も means also",
				Examples: []content.Example{{Sentence: "○ 山田さんも学生です。"}}},
			{ID: 103, LessonID: 1, Name: "empty", CoreRule: "nothing"},
		},
		Vocab: []content.Vocab{
			{ID: 1001, Surface: "学生", Reading: "がくせい", Meanings: []string{"student"}},
			{ID: 1002, Surface: "先生", Reading: "せんせい", Meanings: []string{"teacher"}},
			{ID: 1003, Surface: "本", Reading: "ほん", Meanings: []string{"book"}},
			{ID: 1004, Surface: "生徒", Reading: "せいと", Meanings: []string{"student", "pupil"}},
			{ID: 1005, Surface: "医者", Reading: "いしゃ", Meanings: []string{"doctor"}},
		},
	})
}

func TestResolve_FixedAndReview(t *testing.T) {
	r := NewResolver(testCatalog(), nil)

	q, ok, err := r.Resolve("g101_q1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SourceFixed, q.Source)
	assert.Equal(t, "g101_q1", q.ID)
	assert.Equal(t, 101, q.GrammarID)
	assert.True(t, q.Check("a"))
	assert.True(t, q.Check(" A "))
	assert.False(t, q.Check("b"))

	rev, ok, err := r.Resolve("rev_g101_g101_q1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SourceReview, rev.Source)
	assert.Equal(t, "rev_g101_g101_q1", rev.ID)
	assert.Equal(t, q.Stem, rev.Stem)
	assert.Equal(t, q.Options, rev.Options)

	_, ok, err = r.Resolve("g101_q9")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Resolve("rev_g999_g999_q1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = r.Resolve("bogus")
	assert.ErrorIs(t, err, ErrMalformedID)
}

func TestResolve_JudgeNormalization(t *testing.T) {
	r := NewResolver(testCatalog(), nil)

	tests := []struct {
		id        string
		correctID string
	}{
		{"g101_q2", "a"},
		{"g101_q3", "b"},
	}
	for _, tt := range tests {
		q, ok, err := r.Resolve(tt.id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, content.KindChoice, q.Kind)
		assert.Equal(t, []content.Option{{ID: "a", Text: JudgeCorrectText}, {ID: "b", Text: JudgeWrongText}}, q.Options)
		assert.Equal(t, tt.correctID, q.CorrectOptionID, tt.id)
	}
}

func TestResolve_ReorderLiteral(t *testing.T) {
	r := NewResolver(testCatalog(), nil)
	q, ok, err := r.Resolve("g101_q4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, q.HasOptions())
	assert.True(t, q.Check("わたしは 学生です"))
	assert.False(t, q.Check("学生はわたしです"))
	assert.False(t, q.Check(""))
	assert.Equal(t, "わたしは学生です", q.CorrectText())
}

func TestResolve_Generated(t *testing.T) {
	cache := drillgen.NewCache(0)
	cache.Set(content.Drill{ID: "ai_g101_deadbeef", Kind: content.KindJudge, Stem: "gen", CorrectAnswer: "false", GrammarID: 101})
	r := NewResolver(testCatalog(), cache)

	q, ok, err := r.Resolve("ai_g101_deadbeef")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SourceGenerated, q.Source)
	assert.Equal(t, "b", q.CorrectOptionID)

	// Evicted: degrade to the grammar's first fixed drill, keeping the id.
	q, ok, err = r.Resolve("ai_g101_00000000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SourceFallback, q.Source)
	assert.Equal(t, "ai_g101_00000000", q.ID)
	assert.Equal(t, "わたし＿学生です。", q.Stem)

	// No grammar to fall back to.
	_, ok, err = r.Resolve("ai_g103_00000000")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = r.Resolve("ai_untagged")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_VocabSenseIsNotADrill(t *testing.T) {
	r := NewResolver(testCatalog(), nil)
	_, ok, err := r.Resolve("rev_v1001_sense")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorrectText(t *testing.T) {
	q := &Question{
		Kind:            content.KindChoice,
		Options:         []content.Option{{ID: "a", Text: "は"}, {ID: "b", Text: "が"}},
		CorrectOptionID: "b",
	}
	assert.Equal(t, "が", q.CorrectText())
}
