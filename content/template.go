// Package content holds the built-in YAML persona template, the default prompt
// templates, and the localized notification strings.
package content

// Template is the YAML skeleton a generated persona is expected to follow.
const Template = `name: ""
gender: ""
age: ""
identity: ""
appearance:
  height: ""
  build: ""
  hair: ""
  eyes: ""
  clothing: ""
personality:
  core_traits: []
  strengths: []
  flaws: []
  speech_style: ""
background:
  origin: ""
  history: ""
  current_situation: ""
relationship_with_{{char}}:
  how_they_met: ""
  current_dynamic: ""
  attitude: ""
likes: []
dislikes: []
goals: []
secrets: []
`

// InitialPrompt builds a persona from scratch. {{current}} receives the active
// template skeleton.
const InitialPrompt = `You are a character designer for interactive fiction.
Create a persona for the user "{{user}}" who will role-play alongside {{char}}.

[World information]
{{wi}}

[Style tags]
{{tags}}

[User request]
{{input}}

Fill in the following YAML template. Keep every key, give every value concrete
details, and answer with the YAML document only, without commentary or code fences.

{{current}}`

// RefinePrompt revises an existing persona draft.
const RefinePrompt = `You are revising a persona that role-plays alongside {{char}}.

[World information]
{{wi}}

[Current persona]
{{current}}

[Requested changes]
{{input}}

Apply the requested changes and keep everything else unchanged. Answer with the full
updated YAML document only, without commentary or code fences.`
