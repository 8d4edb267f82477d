// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Web search grounding, where the backend offers it
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)

	// ChatWithFormat sends a chat completion request with response format.
	ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (LLMResponse, error)

	// ChatWithSearch sends a chat completion request with web search enabled.
	// Providers without a native search tool answer from model knowledge;
	// SupportsSearch tells the two apart.
	ChatWithSearch(ctx context.Context, messages []ChatMessage) (LLMResponse, error)

	// SupportsSearch reports whether ChatWithSearch grounds answers in live results.
	SupportsSearch() bool
}
