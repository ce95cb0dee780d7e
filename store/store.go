package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"persona-panel/content"
	"persona-panel/history"
	"persona-panel/prompt"
	"persona-panel/settings"
)

// DefaultDebounce is the quiet period before a save reaches the backend.
const DefaultDebounce = 500 * time.Millisecond

const apiKeySecret = "indepApiKey"

// FailureFunc is told about every storage failure. Failures never reach the
// caller of a Save method.
type FailureFunc func(err *StorageError)

// Store is the typed facade over a Backend. Loads fail soft to defaults,
// saves are debounced per key.
type Store struct {
	backend Backend
	log     *slog.Logger
	secrets Secrets
	window  time.Duration

	mu        sync.RWMutex
	onFailure FailureFunc
	writers   map[string]*Debouncer
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithDebounce sets the debounce window; zero makes every save synchronous.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.window = d }
}

// WithSecrets moves the independent API key out of the settings record.
func WithSecrets(sec Secrets) Option {
	return func(s *Store) { s.secrets = sec }
}

func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		log:     slog.Default(),
		window:  DefaultDebounce,
		writers: make(map[string]*Debouncer),
	}
	for _, o := range opts {
		o(s)
	}
	for _, key := range Keys {
		key := key
		s.writers[key] = NewDebouncer(s.window,
			func(v []byte) error { return s.backend.Set(context.Background(), key, v) },
			func(err error) { s.fail("save", key, err) },
		)
	}
	return s
}

// OnFailure registers the storage failure callback.
func (s *Store) OnFailure(f FailureFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailure = f
}

func (s *Store) fail(op, key string, err error) {
	serr := &StorageError{Op: op, Key: key, Err: err}
	s.log.Error("storage failure", "op", op, "key", key, "error", err)
	s.mu.RLock()
	f := s.onFailure
	s.mu.RUnlock()
	if f != nil {
		f(serr)
	}
}

// load fetches and unwraps key. ok is false when the caller should use the
// default.
func (s *Store) load(ctx context.Context, key string) (json.RawMessage, bool) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.fail("load", key, err)
		return nil, false
	}
	value, err := unwrap(key, data)
	if err != nil {
		s.log.Warn("discarding stored value", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (s *Store) save(key string, value any) {
	data, err := wrap(key, value)
	if err != nil {
		s.fail("save", key, err)
		return
	}
	s.writers[key].Trigger(data)
}

// LoadSettings merges the stored record over settings.Defaults.
func (s *Store) LoadSettings(ctx context.Context) settings.Settings {
	var st settings.Settings
	raw, ok := s.load(ctx, KeyState)
	if !ok {
		st = settings.Defaults()
	} else {
		var err error
		if st, err = settings.Merge(raw); err != nil {
			s.log.Warn("discarding stored value", "key", KeyState, "error", err)
		}
	}
	if s.secrets != nil && st.IndepAPIKey == "" {
		key, err := s.secrets.Get(apiKeySecret)
		if err == nil {
			st.IndepAPIKey = key
		} else if !errors.Is(err, ErrSecretNotFound) {
			s.log.Warn("reading api key from keyring", "error", err)
		}
	}
	return st
}

// SaveSettings persists the full record.
func (s *Store) SaveSettings(st settings.Settings) {
	if s.secrets != nil {
		var err error
		if st.IndepAPIKey == "" {
			err = s.secrets.Delete(apiKeySecret)
		} else {
			err = s.secrets.Set(apiKeySecret, st.IndepAPIKey)
		}
		if err != nil {
			s.fail("save", KeyState, err)
		} else {
			st.IndepAPIKey = ""
		}
	}
	s.save(KeyState, st)
}

// LoadHistory returns the stored entries, or an empty list.
func (s *Store) LoadHistory(ctx context.Context) []history.Entry {
	raw, ok := s.load(ctx, KeyHistory)
	if !ok {
		return []history.Entry{}
	}
	var entries []history.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Warn("discarding stored value", "key", KeyHistory, "error", err)
		return []history.Entry{}
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return entries
}

func (s *Store) SaveHistory(entries []history.Entry) {
	if entries == nil {
		entries = []history.Entry{}
	}
	s.save(KeyHistory, entries)
}

// LoadTemplate returns the stored template, or the built-in one.
func (s *Store) LoadTemplate(ctx context.Context) string {
	raw, ok := s.load(ctx, KeyTemplate)
	if !ok {
		return content.Template
	}
	var tmpl string
	if err := json.Unmarshal(raw, &tmpl); err != nil || tmpl == "" {
		if err != nil {
			s.log.Warn("discarding stored value", "key", KeyTemplate, "error", err)
		}
		return content.Template
	}
	return tmpl
}

func (s *Store) SaveTemplate(tmpl string) {
	s.save(KeyTemplate, tmpl)
}

// LoadPrompts returns the stored prompt set with empty fields defaulted.
func (s *Store) LoadPrompts(ctx context.Context) prompt.Set {
	raw, ok := s.load(ctx, KeyPrompts)
	if !ok {
		return prompt.DefaultSet()
	}
	var set prompt.Set
	if err := json.Unmarshal(raw, &set); err != nil {
		s.log.Warn("discarding stored value", "key", KeyPrompts, "error", err)
		return prompt.DefaultSet()
	}
	return set.WithDefaults()
}

func (s *Store) SavePrompts(set prompt.Set) {
	s.save(KeyPrompts, set)
}

// Flush writes every pending value now. Failures go to the failure callback
// and the first one is returned.
func (s *Store) Flush() error {
	var first error
	for _, key := range Keys {
		if err := s.writers[key].Flush(); err != nil {
			s.fail("save", key, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// FlushKey writes the pending value of one key now.
func (s *Store) FlushKey(key string) {
	w, ok := s.writers[key]
	if !ok {
		return
	}
	if err := w.Flush(); err != nil {
		s.fail("save", key, err)
	}
}

// PendingState reports the debounce state of key.
func (s *Store) PendingState(key string) WriteState {
	w, ok := s.writers[key]
	if !ok {
		return Idle
	}
	state, _ := w.State()
	return state
}

// Close flushes pending writes and closes the backend.
func (s *Store) Close() error {
	flushErr := s.Flush()
	return errors.Join(flushErr, s.backend.Close())
}
