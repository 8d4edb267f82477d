// LLMClient - Simple wrapper around providers.

package llm

import (
	"context"
	"time"
)

// CallKind labels the shape of a provider call.
type CallKind string

const (
	CallText   CallKind = "text"
	CallJSON   CallKind = "json"
	CallSearch CallKind = "search"
)

// CallEvent describes one completed provider call.
type CallEvent struct {
	Provider string
	Model    string
	Kind     CallKind
	Duration time.Duration
	Usage    *TokenUsage
	Err      error
}

// Hooks receives call events. A nil hook is skipped.
type Hooks struct {
	OnCall func(CallEvent)
}

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
	hooks    Hooks
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// WithHooks returns a copy of the client that reports calls to hooks.
func (c *Client) WithHooks(hooks Hooks) *Client {
	return &Client{provider: c.provider, hooks: hooks}
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	response, err := c.observe(CallText, func() (LLMResponse, error) {
		return c.provider.Chat(ctx, messages)
	})
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// ChatWithFormat sends a chat completion request with response format
// and returns just the content.
func (c *Client) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error) {
	kind := CallText
	if format.IsJSON() {
		kind = CallJSON
	}
	response, err := c.observe(kind, func() (LLMResponse, error) {
		return c.provider.ChatWithFormat(ctx, messages, format)
	})
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// Search sends a chat completion request with web search enabled and
// returns the full response including grounding sources.
func (c *Client) Search(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return c.observe(CallSearch, func() (LLMResponse, error) {
		return c.provider.ChatWithSearch(ctx, messages)
	})
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

func (c *Client) observe(kind CallKind, call func() (LLMResponse, error)) (LLMResponse, error) {
	start := time.Now()
	response, err := call()
	if c.hooks.OnCall != nil {
		c.hooks.OnCall(CallEvent{
			Provider: c.provider.Name(),
			Model:    c.provider.Model(),
			Kind:     kind,
			Duration: time.Since(start),
			Usage:    response.Usage,
			Err:      err,
		})
	}
	return response, err
}
