// Package panel ties the stored state, the completion services and the host
// application together into panel sessions.
package panel

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"persona-panel/completion"
	"persona-panel/content"
	"persona-panel/host"
	"persona-panel/store"
	"persona-panel/worldinfo"
)

var ErrNotFound = errors.New("panel session not found")

// Host is the part of the host application a session talks to directly.
type Host interface {
	Context(ctx context.Context) (host.Context, error)
	SavePersona(ctx context.Context, p host.Persona) error
	SwitchPersona(ctx context.Context, name string) error
}

// Deps are shared by every session of a Manager. Store is required; a nil
// Host or WorldInfo behaves as a host without that feature.
type Deps struct {
	Store        *store.Store
	Host         Host
	WorldInfo    worldinfo.API
	Completions  *completion.Selector
	PollInterval time.Duration
	Lang         string
	Log          *slog.Logger
}

type Manager struct {
	deps Deps
	sync *worldinfo.Sync

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager and routes storage failures of d.Store to
// every open session as notices.
func NewManager(d Deps) *Manager {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Completions == nil {
		d.Completions = &completion.Selector{}
	}
	if d.Lang == "" {
		d.Lang = content.DefaultLang
	}
	m := &Manager{
		deps:     d,
		sync:     worldinfo.NewSync(d.WorldInfo),
		sessions: make(map[string]*Session),
	}
	d.Store.OnFailure(m.storageFailed)
	return m
}

var keyLabels = map[string]string{
	store.KeyHistory:  "history",
	store.KeyState:    "settings",
	store.KeyTemplate: "template",
	store.KeyPrompts:  "prompts",
}

func (m *Manager) storageFailed(err *store.StorageError) {
	what := keyLabels[err.Key]
	if what == "" {
		what = err.Key
	}
	for _, s := range m.List() {
		s.notify(LevelError, content.MsgStorageFailed, what, err.Err.Error())
	}
}

// Open creates and initialises a session.
func (m *Manager) Open(ctx context.Context) *Session {
	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		lastActive: now,
		m:          m,
		notices:    newNoticeLog(),
		done:       make(chan struct{}),
	}
	s.log = m.deps.Log.With("panel", s.ID)
	s.init(ctx)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	s.log.Info("panel opened")
	return s
}

// List returns the open sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears the session down: the poller stops, pending saves are written
// and the notification client is disconnected.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.teardown()
	s.log.Info("panel closed")
	return nil
}

// CloseAll closes every open session.
func (m *Manager) CloseAll() {
	for _, s := range m.List() {
		_ = m.Close(s.ID)
	}
}
