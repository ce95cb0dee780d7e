// Package persona reads the YAML persona documents returned by the model.
package persona

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmpty   = errors.New("persona document is empty")
	ErrInvalid = errors.New("invalid persona yaml")
)

// Document is a parsed persona.
type Document struct {
	// Text is the cleaned YAML source.
	Text string
	// Name is the top-level name field, if any.
	Name string
	root map[string]any
}

// Clean strips surrounding whitespace and a markdown code fence.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```yaml
		text = text[nl+1:]
	} else {
		text = ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Parse cleans raw and decodes it as a YAML mapping.
func Parse(raw string) (*Document, error) {
	text := Clean(raw)
	if text == "" {
		return nil, ErrEmpty
	}
	var root map[string]any
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(root) == 0 {
		return nil, ErrEmpty
	}
	return &Document{Text: text, Name: findName(root), root: root}, nil
}

// Keys returns the top-level keys of the document.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.root))
	for k := range d.root {
		keys = append(keys, k)
	}
	return keys
}

// MissingKeys lists the top-level keys of tmpl that d does not have. Keys are
// compared after the template is parsed, so tmpl must already be rendered.
func (d *Document) MissingKeys(tmpl string) []string {
	var want yaml.Node
	if err := yaml.Unmarshal([]byte(tmpl), &want); err != nil || len(want.Content) == 0 {
		return nil
	}
	mapping := want.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	var missing []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if _, ok := d.root[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func findName(root map[string]any) string {
	for _, key := range []string{"name", "Name", "NAME", "名字", "姓名"} {
		if v, ok := root[key]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
			if v != nil {
				return strings.TrimSpace(fmt.Sprint(v))
			}
		}
	}
	return ""
}
