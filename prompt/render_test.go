package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"persona-panel/content"
)

func TestRenderMissingBindingIsEmpty(t *testing.T) {
	got := Render("Hello {{user}}, meet {{char}}", Bindings{User: "Alice"})
	assert.Equal(t, "Hello Alice, meet ", got)
}

func TestRenderReplacesEveryOccurrence(t *testing.T) {
	got := Render("{{char}} and {{char}} and {{char}}", Bindings{Char: "Bo"})
	assert.Equal(t, "Bo and Bo and Bo", got)
}

func TestRenderLeavesUnknownTokens(t *testing.T) {
	tmpl := "{{mood}} {{user}} {{ user }} {{Setting}} {{}}"
	got := Render(tmpl, Bindings{User: "Alice"})
	assert.Equal(t, "{{mood}} Alice {{ user }} {{Setting}} {{}}", got)

	unknown := "a {{x}} b {{y}} c {{z-1}}"
	assert.Equal(t, unknown, Render(unknown, Bindings{}))
}

func TestRenderDoesNotRescanValues(t *testing.T) {
	got := Render("[{{input}}]", Bindings{Input: "{{user}}", User: "Alice"})
	assert.Equal(t, "[{{user}}]", got)
}

func TestRenderNestedBraces(t *testing.T) {
	assert.Equal(t, "{Alice}", Render("{{{user}}}", Bindings{User: "Alice"}))
	assert.Equal(t, "{{a Alice", Render("{{a {{user}}", Bindings{User: "Alice"}))
	assert.Equal(t, "tail {{user", Render("tail {{user", Bindings{User: "Alice"}))
}

func TestRenderDeterministic(t *testing.T) {
	b := Bindings{User: "u", Char: "c", WI: "w", Tags: "t", Input: "i", Current: "cur"}
	first := Render(content.InitialPrompt, b)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Render(content.InitialPrompt, b))
	}
}

func TestRenderNoRecognizedTokenLeft(t *testing.T) {
	b := Bindings{User: "u", Char: "c", WI: "w", Tags: "t", Input: "i", Current: "cur"}
	for _, tmpl := range []string{content.InitialPrompt, content.RefinePrompt, content.Template} {
		out := Render(tmpl, b)
		for name := range recognized {
			assert.NotContains(t, out, "{{"+name+"}}")
		}
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"user", "mood", "char"}, Tokens("{{user}} {{mood}} {{user}} {{char}}"))
	assert.Empty(t, Tokens("no tokens {{here"))
}

func TestBuildInitialRendersSkeleton(t *testing.T) {
	out := BuildInitial(content.InitialPrompt, InitialRequest{
		UserName:  "Alice",
		CharName:  "Seraphina",
		WorldInfo: "A forest realm.",
		Tags:      []string{" healer ", "", "shy"},
		Input:     "a wandering herbalist",
		Template:  content.Template,
	})

	assert.Contains(t, out, `persona for the user "Alice"`)
	assert.Contains(t, out, "A forest realm.")
	assert.Contains(t, out, "healer, shy")
	assert.Contains(t, out, "relationship_with_Seraphina:")
	assert.False(t, strings.Contains(out, "{{"), "no template syntax leaks: %s", out)
}

func TestBuildRefine(t *testing.T) {
	out := BuildRefine("{{char}}|{{wi}}|{{current}}|{{input}}|{{user}}|{{tags}}", RefineRequest{
		CharName:  "S",
		WorldInfo: "W",
		Current:   "name: A",
		Input:     "older",
	})
	assert.Equal(t, "S|W|name: A|older||", out)
}
