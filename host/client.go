// Package host is the HTTP client for the chat application hosting the
// panel: active character context, world-info books and persona records.
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"persona-panel/worldinfo"
)

var ErrNotConfigured = errors.New("host URL is not configured")

// StatusError is a non-2xx answer from the host.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("host returned %d: %s", e.Code, e.Body)
}

// Context is what the host reports about the current chat.
type Context struct {
	UserName string   `json:"user"`
	CharName string   `json:"char"`
	Tags     []string `json:"tags,omitempty"`
}

// Persona is a persona record saved into the host.
type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Client calls the host's extension API rooted at BaseURL.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for baseURL. An empty baseURL yields a client
// whose every call fails with ErrNotConfigured.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Context fetches the active user and character.
func (c *Client) Context(ctx context.Context) (Context, error) {
	var out Context
	err := c.do(ctx, http.MethodGet, "/api/context", nil, &out)
	return out, err
}

// SavePersona creates or replaces a persona record in the host.
func (c *Client) SavePersona(ctx context.Context, p Persona) error {
	return c.do(ctx, http.MethodPost, "/api/personas", p, nil)
}

// SwitchPersona makes the named persona the active one.
func (c *Client) SwitchPersona(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/personas/active", map[string]string{"name": name}, nil)
}

// ListBooks implements worldinfo.API.
func (c *Client) ListBooks(ctx context.Context) ([]worldinfo.Book, error) {
	var out struct {
		Books []worldinfo.Book `json:"books"`
	}
	if err := c.wi(c.do(ctx, http.MethodGet, "/api/worldinfo/books", nil, &out)); err != nil {
		return nil, err
	}
	return out.Books, nil
}

// BoundBook implements worldinfo.API. An unbound character yields "".
func (c *Client) BoundBook(ctx context.Context, char string) (string, error) {
	var out struct {
		Book string `json:"book"`
	}
	path := "/api/worldinfo/characters/" + url.PathEscape(char) + "/book"
	if err := c.wi(c.do(ctx, http.MethodGet, path, nil, &out)); err != nil {
		return "", err
	}
	return out.Book, nil
}

// Entries implements worldinfo.API.
func (c *Client) Entries(ctx context.Context, book string) ([]worldinfo.Entry, error) {
	var out struct {
		Entries []worldinfo.Entry `json:"entries"`
	}
	path := "/api/worldinfo/books/" + url.PathEscape(book) + "/entries"
	if err := c.wi(c.do(ctx, http.MethodGet, path, nil, &out)); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// WriteEntry implements worldinfo.API. Entries are keyed by their comment.
func (c *Client) WriteEntry(ctx context.Context, book string, e worldinfo.Entry) error {
	path := "/api/worldinfo/books/" + url.PathEscape(book) + "/entries/" + url.PathEscape(e.Comment)
	return c.wi(c.do(ctx, http.MethodPut, path, e, nil))
}

// wi maps failures that mean "the world-info plugin is not there" onto
// worldinfo.ErrAPIMissing.
func (c *Client) wi(err error) error {
	if err == nil {
		return nil
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusNotFound, http.StatusNotImplemented, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %v", worldinfo.ErrAPIMissing, err)
		}
		return err
	}
	return fmt.Errorf("%w: %v", worldinfo.ErrAPIMissing, err)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding host response: %w", err)
	}
	return nil
}
