// Signal Collector (the Watchman).
//
// Information Hiding:
// - Search prompt wording, narrow and broad
// - Search capability of the underlying provider

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/richinex/supplysentinel/llm"
	"github.com/richinex/supplysentinel/model"
)

// Collector gathers recent news about a dependency. It never retries on its
// own; the caller decides whether a broader query is worth a second call.
type Collector struct {
	client *llm.Client
	logger *slog.Logger
}

// NewCollector creates a Collector.
func NewCollector(client *llm.Client, logger *slog.Logger) *Collector {
	return &Collector{client: client, logger: Logger(logger, NameWatchman)}
}

// Collect searches for news about the material from its origin.
func (c *Collector) Collect(ctx context.Context, dep model.Dependency) (string, error) {
	c.logger.Debug("initiating search", "material", dep.Material, "location", dep.Origin)
	return c.collect(ctx, dep, collectorPrompt(dep))
}

// CollectBroad searches for news about the material regardless of origin.
func (c *Collector) CollectBroad(ctx context.Context, dep model.Dependency) (string, error) {
	c.logger.Info("retrying search with broader query", "material", dep.Material)
	return c.collect(ctx, dep, broadCollectorPrompt(dep))
}

func (c *Collector) collect(ctx context.Context, dep model.Dependency, prompt string) (string, error) {
	provider := c.client.Provider()
	if !provider.SupportsSearch() {
		c.logger.Debug("provider has no search tool, answering from model knowledge", "provider", provider.Name())
	}

	resp, err := c.client.Search(ctx, []llm.ChatMessage{llm.UserMessage(prompt)})
	if err != nil {
		c.logger.Error("search failed", "material", dep.Material, "location", dep.Origin, "error", err)
		return "", fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	signal := strings.TrimSpace(resp.Content)
	if signal == "" {
		c.logger.Warn("search returned no text", "material", dep.Material, "location", dep.Origin)
		return "", fmt.Errorf("%w: empty search response", ErrNoSignal)
	}

	c.logger.Info("search returned data points",
		"material", dep.Material,
		"location", dep.Origin,
		"data_points", countDataPoints(signal),
		"sources", len(resp.Sources),
	)
	for _, src := range resp.Sources {
		c.logger.Debug("grounding source", "title", src.Title, "uri", src.URI)
	}
	return signal, nil
}

// countDataPoints counts non-blank lines.
func countDataPoints(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
