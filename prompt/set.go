package prompt

import "persona-panel/content"

// Set is the pair of editable prompt templates.
type Set struct {
	Initial string `json:"initial"`
	Refine  string `json:"refine"`
}

// DefaultSet returns the built-in prompt templates.
func DefaultSet() Set {
	return Set{Initial: content.InitialPrompt, Refine: content.RefinePrompt}
}

// WithDefaults fills empty templates from DefaultSet.
func (s Set) WithDefaults() Set {
	d := DefaultSet()
	if s.Initial == "" {
		s.Initial = d.Initial
	}
	if s.Refine == "" {
		s.Refine = d.Refine
	}
	return s
}
