package llm

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotoba/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "llm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	st := openTestStore(t)
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"question":"q","answer":"a"}`), Usage: usage(12, 8)},
		MockResponse{Err: &ErrProviderUnavailable{}},
	)
	p := WithLogging(mock, st.EventRepo(), nil)

	ctx := WithPurpose(context.Background(), PurposeDrillGen)
	req := UserPrompt("system text", "user text")
	req.Schema = testSchema

	_, err := p.Generate(ctx, req)
	require.NoError(t, err)
	_, err = p.Generate(ctx, req)
	require.Error(t, err)

	events, err := st.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.False(t, events[0].Success)
	assert.NotEmpty(t, events[0].ErrorMessage)
	assert.True(t, events[1].Success)
	assert.Equal(t, PurposeDrillGen, events[1].Purpose)
	assert.Equal(t, 12, events[1].InputTokens)
	assert.Contains(t, events[1].RequestBody, "[system]\nsystem text")
	assert.Contains(t, events[1].RequestBody, "[schema: test-drill]")
	assert.JSONEq(t, `{"question":"q","answer":"a"}`, events[1].ResponseBody)
}

func TestNewProvider(t *testing.T) {
	st := openTestStore(t)

	p, err := NewProvider(context.Background(), Config{Provider: ProviderOff}, st.EventRepo(), nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(context.Background(), Config{Provider: ProviderOpenAI}, st.EventRepo(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err = NewProvider(context.Background(), cfg, st.EventRepo(), nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
