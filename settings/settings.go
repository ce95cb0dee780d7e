// Package settings defines the panel configuration record and its defaults.
package settings

import (
	"encoding/json"
	"errors"
	"strings"
)

// APISource selects which completion service a request goes to.
type APISource string

const (
	SourceMain        APISource = "main"
	SourceIndependent APISource = "independent"
)

// DefaultHistoryLimit is the history cap of a fresh install.
const DefaultHistoryLimit = 50

var ErrIndependentIncomplete = errors.New("independent API requires a URL and a model")

// Settings is the full persisted settings record.
type Settings struct {
	AutoSwitchPersona bool      `json:"autoSwitchPersona" yaml:"autoSwitchPersona"`
	SyncToWorldInfo   bool      `json:"syncToWorldInfo" yaml:"syncToWorldInfo"`
	HistoryLimit      uint      `json:"historyLimit" yaml:"historyLimit"`
	APISource         APISource `json:"apiSource" yaml:"apiSource"`
	IndepAPIURL       string    `json:"indepApiUrl" yaml:"indepApiUrl"`
	IndepAPIKey       string    `json:"indepApiKey" yaml:"indepApiKey"`
	IndepAPIModel     string    `json:"indepApiModel" yaml:"indepApiModel"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		AutoSwitchPersona: true,
		SyncToWorldInfo:   false,
		HistoryLimit:      DefaultHistoryLimit,
		APISource:         SourceMain,
	}
}

// Merge decodes a possibly partial stored record over Defaults. Keys absent from
// raw keep their default, unknown keys are ignored, and an unknown apiSource
// falls back to main. A raw value that is not a JSON object is an error.
func Merge(raw []byte) (Settings, error) {
	s := Defaults()
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Defaults(), err
	}
	if s.APISource != SourceMain && s.APISource != SourceIndependent {
		s.APISource = SourceMain
	}
	return s, nil
}

// Validate reports whether a completion request may be issued with s.
func (s Settings) Validate() error {
	if s.APISource != SourceIndependent {
		return nil
	}
	if strings.TrimSpace(s.IndepAPIURL) == "" || strings.TrimSpace(s.IndepAPIModel) == "" {
		return ErrIndependentIncomplete
	}
	return nil
}

// Redacted returns a copy safe to show to a client: the API key is masked.
func (s Settings) Redacted() Settings {
	if s.IndepAPIKey != "" {
		s.IndepAPIKey = mask(s.IndepAPIKey)
	}
	return s
}

func mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// WithKeyFrom restores prev's API key when s carries the masked form produced
// by Redacted, so a client can round-trip redacted settings.
func (s Settings) WithKeyFrom(prev Settings) Settings {
	if prev.IndepAPIKey != "" && s.IndepAPIKey == mask(prev.IndepAPIKey) {
		s.IndepAPIKey = prev.IndepAPIKey
	}
	return s
}
