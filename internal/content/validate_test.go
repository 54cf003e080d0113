package content

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(b *Bundle)
		want   []string
	}{
		{
			name:   "valid",
			modify: func(b *Bundle) {},
		},
		{
			name: "drill ids must name their grammar",
			modify: func(b *Bundle) {
				b.Grammar = append(b.Grammar, GrammarPoint{ID: 7, LessonID: 1, Drills: []Drill{
					{ID: "d1"}, {ID: "g8_q2"}, {ID: "g7_q3"},
				}})
				b.Lessons[1].GrammarIDs = append(b.Lessons[1].GrammarIDs, 7)
			},
			want: []string{
				`grammar 7 drill "d1" is not of the form g7_q<n>`,
				`grammar 7 drill "g8_q2" names grammar 8`,
			},
		},
		{
			name: "duplicate ids",
			modify: func(b *Bundle) {
				b.Lessons = append(b.Lessons, Lesson{ID: 5})
				b.Vocab = append(b.Vocab, Vocab{ID: 1})
				b.Grammar[1].Drills = []Drill{{ID: "g101_q1"}}
				b.Sentences[0].KeyPoints = []KeyPoint{{ID: "k1"}, {ID: "k1"}}
			},
			want: []string{
				"duplicate lesson id: 5",
				"duplicate vocab id: 1",
				`duplicate drill id: "g101_q1"`,
				`grammar 102 drill "g101_q1" names grammar 101`,
				`sentence 1 has duplicate key point "k1"`,
			},
		},
		{
			name: "dangling references",
			modify: func(b *Bundle) {
				missing := 9
				b.Lessons[0].GrammarIDs = append(b.Lessons[0].GrammarIDs, 999)
				b.Lessons[0].VocabPackIDs = append(b.Lessons[0].VocabPackIDs, 99)
				b.Grammar[0].LessonID = 9
				b.Packs[0].LessonID = &missing
				b.Packs[0].VocabIDs = append(b.Packs[0].VocabIDs, 42)
				b.Sentences[2].GrammarIDs = []int{301}
				b.Sentences[2].BlockingVocabIDs = []int{43}
				b.Sentences[2].LessonID = 8
			},
			want: []string{
				"lesson 2 references nonexistent grammar 999",
				"lesson 2 references nonexistent pack 99",
				"grammar 101 references nonexistent lesson 9",
				"pack 10 references nonexistent lesson 9",
				"pack 10 references nonexistent vocab 42",
				"sentence 3 references nonexistent lesson 8",
				"sentence 3 references nonexistent grammar 301",
				"sentence 3 references nonexistent vocab 43",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBundle()
			tt.modify(b)
			err := b.Validate()
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidBundle)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestSeedBundleIsValid(t *testing.T) {
	b, err := SeedBundle()
	require.NoError(t, err)
	assert.NoError(t, b.Validate())
}

func TestLoadRejectsInvalidBundle(t *testing.T) {
	b := testBundle()
	b.Grammar[0].Drills = append(b.Grammar[0].Drills, Drill{ID: "q2"})
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, b.WriteFile(path))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidBundle)
	assert.Contains(t, err.Error(), `grammar 101 drill "q2"`)
}
