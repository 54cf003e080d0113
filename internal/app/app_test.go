package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotoba/internal/llm"
	"github.com/abhisek/kotoba/internal/session"
)

func testOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.LLM = llm.DefaultConfig()
	opts.DBPath = filepath.Join(t.TempDir(), "app.db")
	return opts
}

func TestNew_SeedContentOffline(t *testing.T) {
	a, err := New(context.Background(), testOptions(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Provider)
	assert.False(t, a.Drills.IsAvailable())

	v, err := a.Machine.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Step1, v.Phase)
	assert.NotEmpty(t, v.ItemID)
	require.NotNil(t, v.Question)
}

func TestNew_MisconfiguredProviderFallsBack(t *testing.T) {
	opts := testOptions(t)
	opts.LLM.Provider = llm.ProviderAnthropic // no key

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Provider)
	assert.False(t, a.Drills.IsAvailable())
}

func TestNew_MockProvider(t *testing.T) {
	opts := testOptions(t)
	opts.LLM.Provider = llm.ProviderMock

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.Provider)
	assert.True(t, a.Drills.IsAvailable())
}

func TestNew_BadContentPath(t *testing.T) {
	opts := testOptions(t)
	opts.ContentPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}
