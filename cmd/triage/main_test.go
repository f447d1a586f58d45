package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/inbox-triage/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--env-file", "", "--log-level", "error"))

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassifyCommand_DemoInboxToCSV(t *testing.T) {
	t.Setenv("TRIAGE_LLM_PROVIDER", "none")
	t.Setenv("TRIAGE_STORE_DRIVER", "memory")
	path := filepath.Join(t.TempDir(), "classified_emails.csv")

	out, err := execute(t, "classify", "--source", "demo", "--no-progress", "--export", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Interview with Google")
	assert.Contains(t, out, "Exported 20 rows")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 21)
	assert.Equal(t, "Subject,Snippet,From,Category", lines[0])
	assert.Equal(t, "Interview with Google,Your technical round is scheduled for Friday.,recruiter@google.com,Urgent", lines[1])
	assert.Contains(t, string(data), "ClassificationFailed", "records no rule matches fail without a fallback")

	exported, err := source.ParseCSV(bytes.NewReader(data))
	require.NoError(t, err)
	demo := source.DemoInbox()
	require.Len(t, exported, len(demo))
	for i, r := range demo {
		assert.Equal(t, r.Subject, exported[i].Subject, "row %d follows fetch order", i+1)
	}
}

func TestClassifyCommand_InvalidFilter(t *testing.T) {
	_, err := execute(t, "classify", "--filter", "spam", "--export", "")
	assert.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)

	promo := strings.Index(out, "promo")
	urgent := strings.Index(out, "urgent")
	require.NotEqual(t, -1, promo)
	require.NotEqual(t, -1, urgent)
	assert.Less(t, promo, urgent, "promo rule is listed first")
	assert.Contains(t, out, "interview")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "triage dev\n", out)
}
