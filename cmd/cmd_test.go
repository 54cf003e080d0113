package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KOTOBA_LLM_PROVIDER", "off")
	t.Setenv("KOTOBA_CONTENT", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kotoba (devel)")
}

func TestTodayThenContinue(t *testing.T) {
	db := filepath.Join(t.TempDir(), "k.db")

	out, err := run(t, "", "today", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1/5")

	_, err = run(t, "", "continue", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kotoba answer first")
}

func TestStatsEmpty(t *testing.T) {
	out, err := run(t, "", "stats", "--db", filepath.Join(t.TempDir(), "k.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "Level:     1")
	assert.Contains(t, out, "No answers recorded yet.")
}

func TestResetAborts(t *testing.T) {
	out, err := run(t, "no\n", "reset", "--db", filepath.Join(t.TempDir(), "k.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")
}

func TestSummaryRejectsBadDate(t *testing.T) {
	_, err := run(t, "", "summary", "10/03/2026", "--db", filepath.Join(t.TempDir(), "k.db"))
	assert.ErrorContains(t, err, "invalid date")
}
