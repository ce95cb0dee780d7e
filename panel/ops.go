package panel

import (
	"context"
	"errors"
	"strings"

	"persona-panel/completion"
	"persona-panel/content"
	"persona-panel/history"
	"persona-panel/host"
	"persona-panel/persona"
	"persona-panel/prompt"
	"persona-panel/settings"
	"persona-panel/worldinfo"
)

var (
	ErrNoDraft       = errors.New("nothing to refine")
	ErrNotEditing    = errors.New("template is not being edited")
	ErrEmptyTemplate = errors.New("template is empty")
	ErrUnnamed       = errors.New("persona has no name")
	ErrNoHost        = errors.New("host application is not connected")
	ErrUnknownSource = errors.New("unknown api source")
)

// GenerateInput is an initial generation request. Empty names and tags are
// taken from the host.
type GenerateInput struct {
	Input string   `json:"input"`
	Tags  []string `json:"tags,omitempty"`
	User  string   `json:"user,omitempty"`
	Char  string   `json:"char,omitempty"`
}

// RefineInput is a refine request. An empty Current refines the newest
// history entry.
type RefineInput struct {
	Current string `json:"current,omitempty"`
	Input   string `json:"input"`
	Char    string `json:"char,omitempty"`
}

// Draft is a generated persona and the template keys it left out.
type Draft struct {
	Entry   history.Entry `json:"entry"`
	Missing []string      `json:"missing,omitempty"`
}

// SaveResult describes SavePersona. Sync is nil when the world-info push
// failed; the failure has been reported as a notice.
type SaveResult struct {
	Name     string            `json:"name"`
	Switched bool              `json:"switched"`
	Sync     *worldinfo.Result `json:"sync,omitempty"`
}

// Generate renders the initial prompt, asks the selected completion source
// and appends the answer to history. A failed completion writes nothing.
func (s *Session) Generate(ctx context.Context, in GenerateInput) (Draft, error) {
	s.touch()
	c, err := s.completer()
	if err != nil {
		return Draft{}, err
	}
	hc := s.resolve(ctx, in.User, in.Char)
	tags := in.Tags
	if len(tags) == 0 {
		tags = hc.Tags
	}

	s.mu.RLock()
	tmpl, set := s.template, s.prompts
	s.mu.RUnlock()

	text := prompt.BuildInitial(set.Initial, prompt.InitialRequest{
		UserName:  hc.UserName,
		CharName:  hc.CharName,
		WorldInfo: s.worldText(ctx, hc.CharName),
		Tags:      tags,
		Input:     in.Input,
		Template:  tmpl,
	})
	return s.complete(ctx, c, history.KindInitial, text, in.Input, s.skeleton(hc))
}

// Refine rewrites a persona following in.Input and appends the result.
func (s *Session) Refine(ctx context.Context, in RefineInput) (Draft, error) {
	s.touch()
	current := strings.TrimSpace(in.Current)
	if current == "" {
		list := s.history.List()
		if len(list) == 0 {
			return Draft{}, ErrNoDraft
		}
		current = list[len(list)-1].YAML
	}
	c, err := s.completer()
	if err != nil {
		return Draft{}, err
	}
	hc := s.resolve(ctx, "", in.Char)

	s.mu.RLock()
	set := s.prompts
	s.mu.RUnlock()

	text := prompt.BuildRefine(set.Refine, prompt.RefineRequest{
		CharName:  hc.CharName,
		WorldInfo: s.worldText(ctx, hc.CharName),
		Current:   current,
		Input:     in.Input,
	})
	return s.complete(ctx, c, history.KindRefine, text, in.Input, s.skeleton(hc))
}

func (s *Session) complete(ctx context.Context, c completion.Completer, kind history.Kind, text, instruction, skeleton string) (Draft, error) {
	raw, err := c.Complete(ctx, text)
	if err != nil {
		s.log.Warn("completion failed", "kind", kind, "error", err)
		s.notify(LevelError, content.MsgGenerationFailed, err.Error())
		return Draft{}, err
	}

	var d Draft
	doc, err := persona.Parse(raw)
	switch {
	case errors.Is(err, persona.ErrEmpty):
		s.notify(LevelError, content.MsgGenerationFailed, err.Error())
		return Draft{}, err
	case err != nil:
		// kept as written; the user can still fix it by hand
		s.log.Warn("completion is not a yaml mapping", "error", err)
		d.Entry = history.NewEntry(kind, "", persona.Clean(raw), instruction)
	default:
		d.Entry = history.NewEntry(kind, doc.Name, doc.Text, instruction)
		d.Missing = doc.MissingKeys(skeleton)
	}
	s.history.Append(d.Entry)
	return d, nil
}

// completer picks the completion source from the current settings and
// reports a configuration problem as a notice.
func (s *Session) completer() (completion.Completer, error) {
	c, err := s.m.deps.Completions.For(s.Settings())
	switch {
	case errors.Is(err, settings.ErrIndependentIncomplete):
		s.notify(LevelWarning, content.MsgIndependentConfig)
	case err != nil:
		s.notify(LevelError, content.MsgGenerationFailed, err.Error())
	}
	return c, err
}

// resolve fills the names the caller left empty from the host.
func (s *Session) resolve(ctx context.Context, user, char string) host.Context {
	hc := host.Context{UserName: user, CharName: char}
	if s.m.deps.Host == nil || (user != "" && char != "") {
		return hc
	}
	got, err := s.m.deps.Host.Context(ctx)
	if err != nil {
		s.log.Debug("host context unavailable", "error", err)
		return hc
	}
	if hc.UserName == "" {
		hc.UserName = got.UserName
	}
	if hc.CharName == "" {
		hc.CharName = got.CharName
	}
	hc.Tags = got.Tags
	return hc
}

func (s *Session) worldText(ctx context.Context, char string) string {
	if char == "" {
		return ""
	}
	text, err := s.m.sync.WorldText(ctx, char)
	if err != nil {
		s.log.Debug("world info context unavailable", "error", err)
	}
	return text
}

func (s *Session) skeleton(hc host.Context) string {
	s.mu.RLock()
	tmpl := s.template
	s.mu.RUnlock()
	return prompt.Render(tmpl, prompt.Bindings{prompt.Char: hc.CharName, prompt.User: hc.UserName})
}

// Snapshot stores a hand-edited draft in history.
func (s *Session) Snapshot(yaml, instruction string) (history.Entry, error) {
	s.touch()
	text := persona.Clean(yaml)
	if text == "" {
		return history.Entry{}, persona.ErrEmpty
	}
	var name string
	if doc, err := persona.Parse(text); err == nil {
		name = doc.Name
	}
	e := history.NewEntry(history.KindSnapshot, name, text, instruction)
	s.history.Append(e)
	s.notify(LevelSuccess, content.MsgSnapshotSaved)
	return e, nil
}

// SavePersona saves the draft as a persona in the host, makes it the active
// persona when autoSwitchPersona is set, then pushes it to world info. A
// world-info failure is reported but does not fail the save.
func (s *Session) SavePersona(ctx context.Context, yaml string) (SaveResult, error) {
	s.touch()
	doc, err := persona.Parse(yaml)
	if err != nil {
		return SaveResult{}, err
	}
	if doc.Name == "" {
		return SaveResult{}, ErrUnnamed
	}
	h := s.m.deps.Host
	if h == nil {
		return SaveResult{}, ErrNoHost
	}

	if err := h.SavePersona(ctx, host.Persona{Name: doc.Name, Description: doc.Text}); err != nil {
		s.log.Warn("saving persona", "name", doc.Name, "error", err)
		s.notify(LevelError, content.MsgSaveFailed, err.Error())
		return SaveResult{}, err
	}
	s.notify(LevelSuccess, content.MsgSaveSuccess, doc.Name)
	res := SaveResult{Name: doc.Name}

	if s.Settings().AutoSwitchPersona {
		if err := h.SwitchPersona(ctx, doc.Name); err != nil {
			s.log.Warn("switching persona", "name", doc.Name, "error", err)
		} else {
			res.Switched = true
			s.notify(LevelInfo, content.MsgPersonaSwitched, doc.Name)
		}
	}

	if r, err := s.SyncWorldInfo(ctx, doc.Text); err == nil {
		res.Sync = &r
	}
	return res, nil
}

// SyncWorldInfo pushes yaml into the book bound to the active character.
// It does nothing while syncToWorldInfo is off. Every outcome is reported as
// a notice.
func (s *Session) SyncWorldInfo(ctx context.Context, yaml string) (worldinfo.Result, error) {
	s.touch()
	text := persona.Clean(yaml)
	if text == "" {
		return worldinfo.Result{}, persona.ErrEmpty
	}
	var name string
	if doc, err := persona.Parse(text); err == nil {
		name = doc.Name
	}

	enabled := s.Settings().SyncToWorldInfo
	var char string
	if enabled {
		char = s.resolve(ctx, "", "").CharName
	}
	res, err := s.m.sync.Push(ctx, enabled, char, name, text)
	switch {
	case err == nil && res.Skipped:
	case err == nil:
		s.notify(LevelSuccess, content.MsgSyncSuccess, res.Book)
	case errors.Is(err, worldinfo.ErrNoBook):
		s.notify(LevelWarning, content.MsgSyncNoBook)
	case errors.Is(err, worldinfo.ErrAPIMissing):
		s.notify(LevelWarning, content.MsgSyncAPIMissing)
	default:
		s.log.Warn("world info write", "error", err)
		s.notify(LevelError, content.MsgSyncWriteFailed, err.Error())
	}
	return res, err
}

// Template returns the active template and whether it is being edited.
func (s *Session) Template() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template, s.editing
}

// BeginTemplateEdit sets the editing flag and returns the template to edit.
func (s *Session) BeginTemplateEdit() string {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = true
	return s.template
}

// SaveTemplate ends an edit by replacing the template.
func (s *Session) SaveTemplate(tmpl string) error {
	s.touch()
	if strings.TrimSpace(tmpl) == "" {
		return ErrEmptyTemplate
	}
	s.mu.Lock()
	if !s.editing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.template = tmpl
	s.editing = false
	s.mu.Unlock()

	s.m.deps.Store.SaveTemplate(tmpl)
	s.notify(LevelSuccess, content.MsgTemplateSaved)
	return nil
}

// CancelTemplateEdit clears the editing flag and keeps the template.
func (s *Session) CancelTemplateEdit() {
	s.mu.Lock()
	s.editing = false
	s.mu.Unlock()
}

// ResetTemplate restores the built-in template.
func (s *Session) ResetTemplate() string {
	s.touch()
	s.mu.Lock()
	s.template = content.Template
	s.editing = false
	s.mu.Unlock()
	s.m.deps.Store.SaveTemplate(content.Template)
	return content.Template
}

func (s *Session) Prompts() prompt.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts
}

// SetPrompts replaces the prompt templates; an empty one falls back to its
// built-in default.
func (s *Session) SetPrompts(set prompt.Set) prompt.Set {
	s.touch()
	set = set.WithDefaults()
	s.mu.Lock()
	s.prompts = set
	s.mu.Unlock()
	s.m.deps.Store.SavePrompts(set)
	s.notify(LevelSuccess, content.MsgPromptsSaved)
	return set
}

func (s *Session) ResetPrompts() prompt.Set {
	s.touch()
	set := prompt.DefaultSet()
	s.mu.Lock()
	s.prompts = set
	s.mu.Unlock()
	s.m.deps.Store.SavePrompts(set)
	return set
}

// Settings returns the full settings record, API key included.
func (s *Session) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the settings. A masked API key, as returned by
// settings.Redacted, keeps the stored key. A lower history limit trims
// history right away.
func (s *Session) SetSettings(next settings.Settings) (settings.Settings, error) {
	s.touch()
	if next.APISource != settings.SourceMain && next.APISource != settings.SourceIndependent {
		return settings.Settings{}, ErrUnknownSource
	}
	s.mu.Lock()
	next = next.WithKeyFrom(s.settings)
	s.settings = next
	s.mu.Unlock()

	s.m.deps.Store.SaveSettings(next)
	s.history.SetLimit(next.HistoryLimit)
	return next, nil
}

// History returns the entries, oldest first.
func (s *Session) History() []history.Entry {
	return s.history.List()
}

// ClearHistory empties history and writes the empty list immediately.
func (s *Session) ClearHistory() {
	s.touch()
	s.history.Clear()
	s.notify(LevelInfo, content.MsgHistoryCleared)
}

// RestoreHistory returns the entry at index, 0 being the oldest.
func (s *Session) RestoreHistory(index int) (history.Entry, error) {
	s.touch()
	return s.history.Restore(index)
}

// Books returns the book list from the last poll.
func (s *Session) Books() []worldinfo.Book {
	return s.poller.Books()
}

// RefreshBooks polls the book list now.
func (s *Session) RefreshBooks(ctx context.Context) error {
	return s.poller.Refresh(ctx)
}
