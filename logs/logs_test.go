package logs

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewWritesText(t *testing.T) {
	t.Setenv("INVOCATION_ID", "")
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)
	l.Debug("hidden")
	l.Info("panel opened", "id", "p1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "panel opened")
	assert.Contains(t, out, "id=p1")
}

func TestToJournalKey(t *testing.T) {
	assert.Equal(t, "HISTORY_KEY", toJournalKey("history.key"))
	assert.Equal(t, "ERROR", toJournalKey("error"))
}

func TestJournalOptionsFollowLevel(t *testing.T) {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	opts := journalOptions(lv)
	require.NotNil(t, opts.Level)
	assert.Equal(t, slog.LevelWarn, opts.Level.Level())

	lv.Set(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, opts.Level.Level())
	assert.Equal(t, "HISTORY_KEY", opts.ReplaceAttr(nil, slog.String("history.key", "")).Key)
}
