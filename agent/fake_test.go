package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/richinex/supplysentinel/llm"
)

// scriptedProvider replays canned replies in order and records every call.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []reply
	calls   []call
	search  bool
}

type reply struct {
	content string
	sources []llm.Source
	err     error
}

type call struct {
	kind     llm.CallKind
	messages []llm.ChatMessage
	format   *llm.ResponseFormat
}

func newScripted(replies ...reply) *scriptedProvider {
	return &scriptedProvider{replies: replies, search: true}
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) SupportsSearch() bool { return p.search }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	return p.next(call{kind: llm.CallText, messages: messages})
}

func (p *scriptedProvider) ChatWithFormat(ctx context.Context, messages []llm.ChatMessage, format *llm.ResponseFormat) (llm.LLMResponse, error) {
	return p.next(call{kind: llm.CallJSON, messages: messages, format: format})
}

func (p *scriptedProvider) ChatWithSearch(ctx context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	return p.next(call{kind: llm.CallSearch, messages: messages})
}

func (p *scriptedProvider) next(c call) (llm.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	if len(p.replies) == 0 {
		return llm.LLMResponse{}, errors.New("no scripted reply left")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	if r.err != nil {
		return llm.LLMResponse{}, r.err
	}
	return llm.LLMResponse{Content: r.content, Sources: r.sources}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

var _ llm.Provider = (*scriptedProvider)(nil)
