package session

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "nested", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestOpenAssignsSessionID(t *testing.T) {
	log := openTestLog(t)
	require.NotEmpty(t, log.ID)
	require.False(t, log.StartedAt.IsZero())
}

func TestRecordAndCalls(t *testing.T) {
	log := openTestLog(t)

	args := map[string]any{"query": "Kündigung AND Vermieter"}
	result := map[string]any{"matches": []any{}}
	require.NoError(t, log.Record("search_rg", args, result))
	require.NoError(t, log.Record("list_paths", map[string]any{}, map[string]any{"paths": []string{"gesetze/bgb.md"}}))

	calls, err := log.Calls()
	require.NoError(t, err)
	require.Len(t, calls, 2)
	require.Equal(t, "search_rg", calls[0].Tool)
	require.Equal(t, "list_paths", calls[1].Tool)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Args, &decoded))
	require.Equal(t, "Kündigung AND Vermieter", decoded["query"])
}

func TestRecordTruncatesOversizedResults(t *testing.T) {
	log := openTestLog(t)

	huge := map[string]any{"text": strings.Repeat("x", resultLimit+1)}
	require.NoError(t, log.Record("read_file_range", map[string]any{}, huge))

	calls, err := log.Calls()
	require.NoError(t, err)
	require.Len(t, calls, 1)

	var marker map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Result, &marker))
	require.Equal(t, true, marker["truncated"])
}

func TestSessionsAreIsolated(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	first, err := Open(dbPath)
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.Record("ping", nil, "pong"))

	second, err := Open(dbPath)
	require.NoError(t, err)
	defer second.Close()
	require.NotEqual(t, first.ID, second.ID)

	calls, err := second.Calls()
	require.NoError(t, err)
	require.Empty(t, calls)
}
