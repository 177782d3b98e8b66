// Package llm provides the model client: a single-consumer request queue in
// front of a pluggable chat-completion provider, with wall-clock rate
// limiting and bounded retries. It owns the only network I/O in the pipeline.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors returned by the client.
var (
	// ErrRetriesExhausted marks a request that failed every configured attempt.
	ErrRetriesExhausted = errors.New("llm: retries exhausted")
	// ErrEmptyResponse marks a provider response with no usable content.
	ErrEmptyResponse = errors.New("llm: provider returned empty content")
	// ErrPromptTooLarge marks a prompt rejected before dispatch because its
	// token estimate exceeds the client's prompt budget.
	ErrPromptTooLarge = errors.New("llm: prompt exceeds token budget")
	// ErrClientClosed marks a send attempted after Close.
	ErrClientClosed = errors.New("llm: client is closed")
)

// Request is one provider-agnostic completion request. The client fills the
// sampling fields from its configuration; callers supply only the text.
type Request struct {
	// System is the optional system message.
	System string
	// Prompt is the rendered user message.
	Prompt string
	// Model is the provider-specific model identifier.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxTokens is the completion token ceiling.
	MaxTokens int
}

// Response is a normalized provider response.
type Response struct {
	// Content is the completion text.
	Content string
	// PromptTokens is the provider-reported prompt token count (0 if unknown).
	PromptTokens int
	// CompletionTokens is the provider-reported completion token count (0 if unknown).
	CompletionTokens int
}

// TokensUsed returns the total token count reported by the provider.
func (r Response) TokensUsed() int {
	return r.PromptTokens + r.CompletionTokens
}

// Provider is the capability pair a model backend must implement: build the
// provider-specific request and parse the provider-specific response. The
// queue, rate limiting, and retry policy live in the Client and never change
// when a provider is added.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Complete sends one chat-completion request and returns the normalized
	// response. Implementations must honor ctx cancellation.
	Complete(ctx context.Context, req Request) (Response, error)
}
