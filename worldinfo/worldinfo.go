// Package worldinfo pushes personas into the world-info book bound to the
// active character and keeps the list of available books fresh.
package worldinfo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrAPIMissing means the host's world-info API cannot be reached.
	ErrAPIMissing = errors.New("world info API is not available")
	// ErrNoBook means no book is bound to the current character.
	ErrNoBook = errors.New("no world book bound to the character")
	// ErrWriteFailed means the host rejected the entry write.
	ErrWriteFailed = errors.New("world info write failed")
)

// Book is a world-info book owned by the host.
type Book struct {
	Name string `json:"name"`
}

// Entry is one world-info entry.
type Entry struct {
	Comment string   `json:"comment"`
	Keys    []string `json:"keys"`
	Content string   `json:"content"`
}

// API is the host's world-info surface. Implementations return ErrAPIMissing
// when the host cannot serve the request at all, and BoundBook returns ""
// when the character has no book.
type API interface {
	ListBooks(ctx context.Context) ([]Book, error)
	BoundBook(ctx context.Context, char string) (string, error)
	Entries(ctx context.Context, book string) ([]Entry, error)
	WriteEntry(ctx context.Context, book string, e Entry) error
}

// Result describes a finished push.
type Result struct {
	// Skipped is true when sync is disabled and nothing was sent.
	Skipped bool   `json:"skipped"`
	Book    string `json:"book,omitempty"`
	Entry   string `json:"entry,omitempty"`
}

// Sync performs one-way pushes through api. A nil api behaves as a host
// without world-info support.
type Sync struct {
	api API
}

func NewSync(api API) *Sync {
	return &Sync{api: api}
}

// EntryComment is the title of the entry a persona is written to.
func EntryComment(name string) string {
	if name == "" {
		return "Persona"
	}
	return "Persona: " + name
}

// Push writes yaml into the book bound to char. With enabled false it makes
// no external call and returns a skipped result.
func (s *Sync) Push(ctx context.Context, enabled bool, char, name, yaml string) (Result, error) {
	if !enabled {
		return Result{Skipped: true}, nil
	}
	if s.api == nil {
		return Result{}, ErrAPIMissing
	}

	book, err := s.api.BoundBook(ctx, char)
	if err != nil {
		return Result{}, classify(err, ErrAPIMissing)
	}
	if book == "" {
		return Result{}, ErrNoBook
	}

	entry := Entry{
		Comment: EntryComment(name),
		Keys:    lo.Compact([]string{name}),
		Content: yaml,
	}
	if err := s.api.WriteEntry(ctx, book, entry); err != nil {
		return Result{}, classify(err, ErrWriteFailed)
	}
	return Result{Book: book, Entry: entry.Comment}, nil
}

// WorldText joins the non-empty entries of the book bound to char, for use
// as prompt context. Any failure yields "".
func (s *Sync) WorldText(ctx context.Context, char string) (string, error) {
	if s.api == nil {
		return "", ErrAPIMissing
	}
	book, err := s.api.BoundBook(ctx, char)
	if err != nil || book == "" {
		return "", err
	}
	entries, err := s.api.Entries(ctx, book)
	if err != nil {
		return "", err
	}
	texts := lo.FilterMap(entries, func(e Entry, _ int) (string, bool) {
		c := strings.TrimSpace(e.Content)
		return c, c != ""
	})
	return strings.Join(texts, "\n\n"), nil
}

func classify(err, fallback error) error {
	if errors.Is(err, ErrAPIMissing) {
		return err
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
