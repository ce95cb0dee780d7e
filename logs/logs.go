// Package logs builds the process logger.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// ParseLevel maps debug/info/warn/error to a level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a logger writing text to w, fanned out to the systemd journal
// when the process runs as a systemd service. With journal the terminal
// handler is dropped, as the unit's stderr already lands in the journal.
func New(w io.Writer, level slog.Level) *slog.Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)

	var handlers []slog.Handler
	systemd := isSystemdService()

	var terminal slog.Handler
	if !systemd {
		terminal = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
		handlers = append(handlers, terminal)
	}

	if systemd {
		journal, err := slogjournal.NewHandler(journalOptions(lv))
		if err != nil {
			terminal = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
			handlers = append(handlers, terminal)
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.Add("error", err)
			_ = terminal.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journal)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

func journalOptions(lv slog.Leveler) *slogjournal.Options {
	return &slogjournal.Options{
		Level: lv,
		ReplaceGroup: func(key string) string {
			return toJournalKey(key)
		},
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	}
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	if os.Getenv("INVOCATION_ID") == "" {
		return false
	}
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), ":", 3)
	if len(parts) < 3 {
		return false
	}
	cgroup := parts[2]
	return strings.HasSuffix(cgroup, ".service") || strings.HasSuffix(path.Dir(cgroup), ".service")
}
