package prompt

import "strings"

// InitialRequest carries the runtime values of an initial generation.
type InitialRequest struct {
	UserName  string
	CharName  string
	WorldInfo string
	Tags      []string
	Input     string
	// Template is the YAML skeleton the answer must follow. It is rendered
	// with the character binding before being bound to {{current}}.
	Template string
}

// RefineRequest carries the runtime values of a refinement.
type RefineRequest struct {
	CharName  string
	WorldInfo string
	Current   string
	Input     string
}

// BuildInitial renders the initial-generation prompt template.
func BuildInitial(tmpl string, r InitialRequest) string {
	skeleton := Render(r.Template, Bindings{Char: r.CharName, User: r.UserName})
	return Render(tmpl, Bindings{
		User:    r.UserName,
		Char:    r.CharName,
		WI:      r.WorldInfo,
		Tags:    JoinTags(r.Tags),
		Input:   r.Input,
		Current: skeleton,
	})
}

// BuildRefine renders the refine prompt template.
func BuildRefine(tmpl string, r RefineRequest) string {
	return Render(tmpl, Bindings{
		Char:    r.CharName,
		WI:      r.WorldInfo,
		Current: r.Current,
		Input:   r.Input,
	})
}

// JoinTags trims tags, drops empty ones and joins the rest with ", ".
func JoinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, ", ")
}
