package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"persona-panel/completion"
	"persona-panel/host"
	"persona-panel/store"
	"persona-panel/worldinfo"
)

type fakeCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakeCompleter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// fakeHost serves both the persona calls and the world-info API.
type fakeHost struct {
	mu       sync.Mutex
	ctx      host.Context
	ctxErr   error
	saved    []host.Persona
	active   string
	saveErr  error
	books    []worldinfo.Book
	bound    map[string]string
	entries  map[string][]worldinfo.Entry
	writeErr error
	wiErr    error
	wiCalls  int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		ctx:     host.Context{UserName: "Alice", CharName: "Seraphina", Tags: []string{"fantasy", "forest"}},
		books:   []worldinfo.Book{{Name: "Forest Lore"}},
		bound:   map[string]string{"Seraphina": "Forest Lore"},
		entries: map[string][]worldinfo.Entry{"Forest Lore": {{Comment: "forest", Content: "The forest is ancient."}}},
	}
}

func (h *fakeHost) Context(context.Context) (host.Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctx, h.ctxErr
}

func (h *fakeHost) SavePersona(_ context.Context, p host.Persona) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saved = append(h.saved, p)
	return nil
}

func (h *fakeHost) SwitchPersona(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = name
	return nil
}

func (h *fakeHost) ListBooks(context.Context) ([]worldinfo.Book, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.wiCalls++
	return h.books, h.wiErr
}

func (h *fakeHost) BoundBook(_ context.Context, char string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.wiCalls++
	if h.wiErr != nil {
		return "", h.wiErr
	}
	return h.bound[char], nil
}

func (h *fakeHost) Entries(_ context.Context, book string) ([]worldinfo.Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.wiCalls++
	return h.entries[book], h.wiErr
}

func (h *fakeHost) WriteEntry(_ context.Context, book string, e worldinfo.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.wiCalls++
	if h.writeErr != nil {
		return h.writeErr
	}
	h.entries[book] = append(h.entries[book], e)
	return nil
}

func (h *fakeHost) worldInfoCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.wiCalls
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) { return nil, store.ErrNotFound }
func (failingBackend) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingBackend) Close() error { return nil }

type fixture struct {
	backend store.Backend
	store   *store.Store
	host    *fakeHost
	llm     *fakeCompleter
	m       *Manager
}

func newFixture(t *testing.T, opts ...store.Option) *fixture {
	t.Helper()
	return newFixtureWithBackend(t, store.NewMemoryBackend(), opts...)
}

func newFixtureWithBackend(t *testing.T, b store.Backend, opts ...store.Option) *fixture {
	t.Helper()
	f := &fixture{
		backend: b,
		host:    newFakeHost(),
		llm:     &fakeCompleter{answer: "```yaml\nname: Ann\nage: 20\n```"},
	}
	f.store = store.New(b, append([]store.Option{store.WithDebounce(0)}, opts...)...)
	f.m = NewManager(Deps{
		Store:        f.store,
		Host:         f.host,
		WorldInfo:    f.host,
		Completions:  &completion.Selector{Main: f.llm},
		PollInterval: time.Hour,
	})
	t.Cleanup(f.m.CloseAll)
	return f
}

func noticeIDs(s *Session) []string {
	var ids []string
	for _, n := range s.Notices() {
		ids = append(ids, string(n.ID))
	}
	return ids
}
