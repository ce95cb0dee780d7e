package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"persona-panel/settings"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini serves the main API source.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini API client. baseURL may be empty.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &CompletionAPIError{Source: settings.SourceMain, Message: err.Error(), Err: err}
	}
	text := res.Text()
	if text == "" {
		return "", &CompletionAPIError{Source: settings.SourceMain, Message: "response has no text (blocked or empty)"}
	}
	return text, nil
}
