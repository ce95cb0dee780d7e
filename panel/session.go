package panel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"persona-panel/content"
	"persona-panel/history"
	"persona-panel/prompt"
	"persona-panel/settings"
	"persona-panel/store"
	"persona-panel/worldinfo"
)

// Session is one open panel. It owns the loaded state, the book poller and
// the notification stream of a single client.
type Session struct {
	ID        string
	CreatedAt time.Time

	m   *Manager
	log *slog.Logger

	mu         sync.RWMutex
	settings   settings.Settings
	template   string
	prompts    prompt.Set
	editing    bool
	lastActive time.Time

	history *history.Cache
	poller  *worldinfo.Poller
	cancel  context.CancelFunc

	notices   *noticeLog
	outMu     sync.Mutex
	outChan   chan Notice
	kickChan  chan struct{}
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

// Info is the client-facing description of a session.
type Info struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Connected  bool      `json:"connected"`
	Editing    bool      `json:"editing"`
}

// init loads every stored entity and starts the book poller. Pending saves
// of other sessions are flushed first so the loads see them.
func (s *Session) init(ctx context.Context) {
	st := s.m.deps.Store
	_ = st.Flush()

	s.settings = st.LoadSettings(ctx)
	s.template = st.LoadTemplate(ctx)
	s.prompts = st.LoadPrompts(ctx)
	s.history = history.NewCache(st.LoadHistory(ctx), s.settings.HistoryLimit, st.SaveHistory)
	s.history.OnClear(func() { st.FlushKey(store.KeyHistory) })

	s.poller = worldinfo.NewPoller(s.m.deps.WorldInfo, s.m.deps.PollInterval, s.log, func(books []worldinfo.Book) {
		s.log.Debug("world books changed", "count", len(books))
	})
	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.poller.Start(pollCtx)
}

// teardown stops the poller, writes pending saves and disconnects the
// client. It is safe to call more than once.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.cancel()
		if done := s.poller.Done(); done != nil {
			<-done
		}
		_ = s.m.deps.Store.Flush()
		close(s.done)

		s.outMu.Lock()
		if s.kickChan != nil {
			close(s.kickChan)
			s.kickChan = nil
		}
		s.outChan = nil
		s.connected = false
		s.outMu.Unlock()
	})
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return Info{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.lastActive,
		Connected:  s.connected,
		Editing:    s.editing,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// SetClient registers a channel to receive live notices. A previously
// connected client is kicked: its kick channel is closed so the websocket
// handler can close that connection. The returned kick channel is closed if
// this client is itself displaced or the session ends.
func (s *Session) SetClient(ch chan Notice) <-chan struct{} {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.kickChan != nil {
		close(s.kickChan)
	}
	kick := make(chan struct{})
	s.kickChan = kick
	s.outChan = ch
	s.connected = true
	return kick
}

// ClearClient is called when a connection ends. It only updates session
// state if ch is still the current owner, and always closes ch so the pump
// goroutine exits.
func (s *Session) ClearClient(ch chan Notice) {
	s.outMu.Lock()
	if s.outChan == ch {
		s.outChan = nil
		s.connected = false
		s.kickChan = nil
	}
	s.outMu.Unlock()
	close(ch)
}

// Notices returns the recent notices, oldest first.
func (s *Session) Notices() []Notice {
	return s.notices.Snapshot()
}

func (s *Session) notify(level Level, id content.MessageID, args ...any) {
	n := Notice{
		ID:    id,
		Level: level,
		Text:  content.Message(s.m.deps.Lang, id, args...),
		Time:  time.Now().UTC(),
	}
	s.notices.Write(n)

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.outChan != nil {
		select {
		case s.outChan <- n:
		default:
			s.log.Debug("notice dropped, client is slow", "id", id)
		}
	}
}
