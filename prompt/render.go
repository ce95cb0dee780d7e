// Package prompt renders prompt templates by substituting placeholder tokens.
package prompt

import "strings"

// Recognized placeholder names. Any other {{name}} in a template is copied
// to the output untouched.
const (
	User    = "user"
	Char    = "char"
	WI      = "wi"
	Tags    = "tags"
	Input   = "input"
	Current = "current"
)

var recognized = map[string]bool{
	User:    true,
	Char:    true,
	WI:      true,
	Tags:    true,
	Input:   true,
	Current: true,
}

// Bindings maps placeholder names to their runtime values.
type Bindings map[string]string

// Recognized reports whether name is a placeholder Render substitutes.
func Recognized(name string) bool {
	return recognized[name]
}

// Render replaces every recognized {{name}} in tmpl with its binding, or with
// the empty string when no binding is given. The template is scanned once;
// substituted values are written straight to the output and never rescanned.
func Render(tmpl string, b Bindings) string {
	var out strings.Builder
	out.Grow(len(tmpl))

	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			out.WriteString(rest)
			break
		}
		closeAt := strings.Index(rest[open+2:], "}}")
		if closeAt < 0 {
			out.WriteString(rest)
			break
		}
		name := rest[open+2 : open+2+closeAt]
		if !recognized[name] {
			// Emit "{" and rescan from the second brace so "{{{user}}" still
			// resolves the inner token.
			out.WriteString(rest[:open+1])
			rest = rest[open+1:]
			continue
		}
		out.WriteString(rest[:open])
		out.WriteString(b[name])
		rest = rest[open+2+closeAt+2:]
	}
	return out.String()
}

// Tokens returns the distinct {{name}} tokens found in tmpl in order of first
// appearance, recognized or not.
func Tokens(tmpl string) []string {
	var names []string
	seen := map[string]bool{}
	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			return names
		}
		closeAt := strings.Index(rest[open+2:], "}}")
		if closeAt < 0 {
			return names
		}
		name := rest[open+2 : open+2+closeAt]
		if strings.Contains(name, "{{") {
			rest = rest[open+1:]
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[open+2+closeAt+2:]
	}
}
