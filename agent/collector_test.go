package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/supplysentinel/llm"
	"github.com/richinex/supplysentinel/logging"
	"github.com/richinex/supplysentinel/model"
)

var steel = model.Dependency{Material: "Steel", Origin: "China"}

func TestCollectUsesSearchWithOrigin(t *testing.T) {
	p := newScripted(reply{
		content: "Port strike in Shanghai.\n\nMills cutting output.\n",
		sources: []llm.Source{{Title: "Reuters", URI: "https://example.com/a"}},
	})
	c := NewCollector(llm.NewClient(p), logging.Discard())

	signal, err := c.Collect(context.Background(), steel)
	require.NoError(t, err)
	assert.Equal(t, "Port strike in Shanghai.\n\nMills cutting output.", signal)

	require.Len(t, p.calls, 1)
	assert.Equal(t, llm.CallSearch, p.calls[0].kind)
	prompt := p.calls[0].messages[0].Content
	assert.Contains(t, prompt, "Steel from China")
	assert.Contains(t, prompt, "last 7 days")
}

func TestCollectBroadDropsOrigin(t *testing.T) {
	p := newScripted(reply{content: "Global steel prices steady."})
	c := NewCollector(llm.NewClient(p), logging.Discard())

	_, err := c.CollectBroad(context.Background(), steel)
	require.NoError(t, err)

	prompt := p.calls[0].messages[0].Content
	assert.Contains(t, prompt, "Steel supply globally")
	assert.NotContains(t, prompt, "China")
}

func TestCollectFailures(t *testing.T) {
	c := NewCollector(llm.NewClient(newScripted(reply{err: errors.New("timeout")})), logging.Discard())
	_, err := c.Collect(context.Background(), steel)
	assert.ErrorIs(t, err, ErrRemoteCall)

	c = NewCollector(llm.NewClient(newScripted(reply{content: "  \n "})), logging.Discard())
	_, err = c.Collect(context.Background(), steel)
	assert.ErrorIs(t, err, ErrNoSignal)
}

func TestCollectWithoutSearchSupport(t *testing.T) {
	p := newScripted(reply{content: "No known disruptions."})
	p.search = false
	c := NewCollector(llm.NewClient(p), logging.Discard())

	signal, err := c.Collect(context.Background(), steel)
	require.NoError(t, err)
	assert.Equal(t, "No known disruptions.", signal)
}

func TestCountDataPoints(t *testing.T) {
	assert.Equal(t, 0, countDataPoints(""))
	assert.Equal(t, 2, countDataPoints("a\n\n  \nb"))
}
