package completion

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"persona-panel/settings"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI targets baseURL, which should include the API version path
// (e.g. http://localhost:8000/v1).
func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &CompletionAPIError{Source: settings.SourceIndependent, Message: "response has no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIError(err error) error {
	out := &CompletionAPIError{Source: settings.SourceIndependent, Message: err.Error(), Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.Status = apiErr.HTTPStatusCode
		out.Message = apiErr.Message
	case errors.As(err, &reqErr):
		out.Status = reqErr.HTTPStatusCode
	}
	return out
}
