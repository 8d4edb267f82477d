// Dependency Mapper (the Config agent).
//
// Information Hiding:
// - Prompt and system instruction
// - Accepting either a bare list or a {"dependencies": [...]} wrapper
// - Schema validation of every entry

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jsonutil "github.com/richinex/supplysentinel/internal/json"
	"github.com/richinex/supplysentinel/internal/schema"
	"github.com/richinex/supplysentinel/llm"
	"github.com/richinex/supplysentinel/model"
)

// dependencyMap is the object shape requested from the model. Some
// providers only emit objects at the top level.
type dependencyMap struct {
	Dependencies []model.Dependency `json:"dependencies" jsonschema:"minItems=1"`
}

var dependencyMapSchema = schema.MustValidator(&dependencyMap{})

// Mapper asks the model for the materials a business depends on.
type Mapper struct {
	client *llm.Client
	logger *slog.Logger
}

// NewMapper creates a Mapper.
func NewMapper(client *llm.Client, logger *slog.Logger) *Mapper {
	return &Mapper{client: client, logger: Logger(logger, NameConfig)}
}

// Map returns the dependencies for a business description. On any failure
// it returns an empty list and an error; an empty list always means the
// mapping failed.
func (m *Mapper) Map(ctx context.Context, description string) ([]model.Dependency, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return []model.Dependency{}, ErrEmptyDescription
	}

	m.logger.Debug("dependency mapping initiated", "description", description)

	messages := []llm.ChatMessage{
		llm.SystemMessage(mapperSystemPrompt),
		llm.UserMessage(mapperPrompt(description)),
	}
	format := llm.NewJSONSchemaFormat("dependency_map", dependencyMapSchema.Raw())

	content, err := m.client.ChatWithFormat(ctx, messages, format)
	if err != nil {
		m.logger.Error("dependency mapping failed", "error", err)
		return []model.Dependency{}, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	deps, err := decodeDependencies(content)
	if err != nil {
		m.logger.Error("dependency mapping returned malformed output", "error", err)
		return []model.Dependency{}, err
	}

	m.logger.Info("dependency mapping completed", "dependencies", len(deps))
	return deps, nil
}

func decodeDependencies(content string) ([]model.Dependency, error) {
	raw, err := jsonutil.ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var deps []model.Dependency
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		deps, err = schema.Decode[[]model.Dependency](model.DependencyListSchema, raw)
	} else {
		var wrapped dependencyMap
		wrapped, err = schema.Decode[dependencyMap](dependencyMapSchema, raw)
		deps = wrapped.Dependencies
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(deps) == 0 {
		return nil, fmt.Errorf("%w: empty dependency list", ErrMalformedResponse)
	}
	return deps, nil
}
