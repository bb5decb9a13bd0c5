package quizchat

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Gateway is the text-generation collaborator. A call may block for
// seconds; there are no partial results and no cancellation beyond the
// context. Callers decide whether a failed request is retried.
type Gateway interface {
	Generate(ctx context.Context, turns []ChatTurn, maxTokens int, temperature float32) (string, error)
}

// OpenAIGateway talks to any OpenAI-compatible chat completion endpoint,
// including a llama.cpp server running locally.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

// NewOpenAIGateway creates a gateway for the given endpoint. baseURL may
// be empty to use the public API; model names the served model.
func NewOpenAIGateway(apiKey, baseURL, model string) *OpenAIGateway {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGateway{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate runs one chat completion and returns the raw message text.
func (g *OpenAIGateway) Generate(ctx context.Context, turns []ChatTurn, maxTokens int, temperature float32) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    t.Role,
			Content: t.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", &GatewayError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GatewayError{Op: "chat completion", Err: errors.New("no choices in response")}
	}

	return resp.Choices[0].Message.Content, nil
}
