package panel

import (
	"sync"
	"time"

	"persona-panel/content"
)

const maxBacklog = 64

// Level is how a notice should be presented.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one user-visible notification.
type Notice struct {
	ID    content.MessageID `json:"id"`
	Level Level             `json:"level"`
	Text  string            `json:"text"`
	Time  time.Time         `json:"time"`
}

// noticeLog keeps the most recent notices so a client connecting late can
// catch up.
type noticeLog struct {
	mu   sync.Mutex
	data []Notice
	max  int
}

func newNoticeLog() *noticeLog {
	return &noticeLog{max: maxBacklog}
}

func (l *noticeLog) Write(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = append(l.data, n)
	if len(l.data) > l.max {
		excess := len(l.data) - l.max
		l.data = l.data[excess:]
	}
}

func (l *noticeLog) Snapshot() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.data) == 0 {
		return nil
	}
	cp := make([]Notice, len(l.data))
	copy(cp, l.data)
	return cp
}
