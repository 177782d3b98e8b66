package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider sends requests to the OpenAI chat-completion API or any
// OpenAI-compatible gateway reachable at a custom base URL.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider constructs a provider authenticated with apiKey.
// baseURL overrides the default endpoint when non-empty.
//
// Precondition: apiKey must be non-empty.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm.NewOpenAIProvider: api key must not be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name identifies the provider in logs and metrics.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends one chat-completion request and returns the first choice.
//
// Postcondition: returns ErrEmptyResponse if no choice carries content.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return Response{}, fmt.Errorf("llm.OpenAIProvider: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
