package drill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabQuiz(t *testing.T) {
	cat := testCatalog()
	r := NewResolver(cat, nil)
	pool := cat.Vocab([]int{1001, 1002, 1003, 1004, 1005})

	q, ok, err := r.VocabQuiz("rev_v1001_sense", pool)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "学生", q.Surface)
	require.Len(t, q.Options, 4)
	// 1001 mod 4 = 1
	assert.Equal(t, "b", q.CorrectOptionID)
	assert.True(t, q.Check("B"))
	assert.False(t, q.Check("a"))

	texts := map[string]bool{}
	for _, o := range q.Options {
		assert.False(t, texts[o.Text], "duplicate option %q", o.Text)
		texts[o.Text] = true
	}
	assert.True(t, texts["student"])

	again, _, _ := r.VocabQuiz("rev_v1001_sense", pool)
	assert.Equal(t, q, again)
}

func TestVocabQuiz_SmallPool(t *testing.T) {
	cat := testCatalog()
	r := NewResolver(cat, nil)

	q, ok, err := r.VocabQuiz("rev_v1002_sense", cat.Vocab([]int{1002}))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, q.Options, 1)
	assert.Equal(t, "a", q.CorrectOptionID)
}

func TestVocabQuiz_Misses(t *testing.T) {
	r := NewResolver(testCatalog(), nil)

	_, ok, err := r.VocabQuiz("rev_v9999_sense", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.VocabQuiz("g101_q1", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = r.VocabQuiz("nope", nil)
	assert.ErrorIs(t, err, ErrMalformedID)
}
