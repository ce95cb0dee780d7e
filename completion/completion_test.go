package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-panel/settings"
)

type fakeCompleter struct{ text string }

func (f fakeCompleter) Complete(context.Context, string) (string, error) { return f.text, nil }

func TestSelectorMain(t *testing.T) {
	sel := &Selector{}
	_, err := sel.For(settings.Defaults())
	assert.ErrorIs(t, err, ErrMainUnavailable)

	sel.Main = fakeCompleter{text: "main"}
	c, err := sel.For(settings.Defaults())
	require.NoError(t, err)
	out, _ := c.Complete(context.Background(), "p")
	assert.Equal(t, "main", out)
}

func TestSelectorIndependentValidates(t *testing.T) {
	var built settings.Settings
	sel := &Selector{Independent: func(s settings.Settings) Completer {
		built = s
		return fakeCompleter{text: "indep"}
	}}

	s := settings.Defaults()
	s.APISource = settings.SourceIndependent
	_, err := sel.For(s)
	assert.ErrorIs(t, err, settings.ErrIndependentIncomplete)

	s.IndepAPIURL = "http://llm.local/v1"
	s.IndepAPIModel = "m"
	c, err := sel.For(s)
	require.NoError(t, err)
	assert.Equal(t, "http://llm.local/v1", built.IndepAPIURL)
	out, _ := c.Complete(context.Background(), "p")
	assert.Equal(t, "indep", out)
}

func TestOpenAIComplete(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"name: Lyra"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI(srv.URL+"/v1/", "sk-test", "m")
	out, err := c.Complete(context.Background(), "make a persona")
	require.NoError(t, err)
	assert.Equal(t, "name: Lyra", out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "m", gotBody["model"])
	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "make a persona", msgs[0].(map[string]any)["content"])
}

func TestOpenAIErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit_error"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL+"/v1", "k", "m").Complete(context.Background(), "p")
	var apiErr *CompletionAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, settings.SourceIndependent, apiErr.Source)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "slow down", apiErr.Message)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOpenAI(url+"/v1", "k", "m").Complete(context.Background(), "p")
	var apiErr *CompletionAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.NotEmpty(t, apiErr.Message)
}

func TestGeminiComplete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"name: Kai"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "key", "", srv.URL)
	require.NoError(t, err)
	out, err := g.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "name: Kai", out)
	assert.True(t, strings.HasSuffix(path, DefaultGeminiModel+":generateContent"), path)
}

func TestGeminiEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "key", "m", srv.URL)
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), "p")
	var apiErr *CompletionAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, settings.SourceMain, apiErr.Source)
}
