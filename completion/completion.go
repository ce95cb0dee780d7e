// Package completion sends rendered prompts to a text-completion service.
package completion

import (
	"context"
	"errors"
	"fmt"

	"persona-panel/settings"
)

// Completer turns a prompt into the model's raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionAPIError is any failure reported by, or while reaching, the
// completion service.
type CompletionAPIError struct {
	Source  settings.APISource
	Status  int
	Message string
	Err     error
}

func (e *CompletionAPIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s completion API (%d): %s", e.Source, e.Status, e.Message)
	}
	return fmt.Sprintf("%s completion API: %s", e.Source, e.Message)
}

func (e *CompletionAPIError) Unwrap() error { return e.Err }

var ErrMainUnavailable = errors.New("main completion source is not configured")

// Selector picks the completer for the API source chosen in settings.
type Selector struct {
	// Main serves SourceMain; nil when no key was configured.
	Main Completer
	// Independent builds the completer for SourceIndependent from settings.
	// Defaults to NewOpenAI.
	Independent func(s settings.Settings) Completer
}

// For returns the completer to use with s. The independent source is
// validated first.
func (sel *Selector) For(s settings.Settings) (Completer, error) {
	if s.APISource == settings.SourceIndependent {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		build := sel.Independent
		if build == nil {
			build = func(s settings.Settings) Completer {
				return NewOpenAI(s.IndepAPIURL, s.IndepAPIKey, s.IndepAPIModel)
			}
		}
		return build(s), nil
	}
	if sel.Main == nil {
		return nil, ErrMainUnavailable
	}
	return sel.Main, nil
}
