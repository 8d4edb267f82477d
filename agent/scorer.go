// Risk Scorer (the Analyst).
//
// Information Hiding:
// - Scoring prompt
// - JSON extraction and validation of the assessment
// - Threat level bands used for logging

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jsonutil "github.com/richinex/supplysentinel/internal/json"
	"github.com/richinex/supplysentinel/internal/schema"
	"github.com/richinex/supplysentinel/llm"
	"github.com/richinex/supplysentinel/logging"
	"github.com/richinex/supplysentinel/model"
)

// Threat level bands.
const (
	criticalScore = 7
	elevatedScore = 5
)

// ThreatLevel names the band a score falls into.
func ThreatLevel(score float64) string {
	switch {
	case score == 0:
		return "NONE"
	case score >= criticalScore:
		return "CRITICAL"
	case score >= elevatedScore:
		return "ELEVATED"
	default:
		return "NORMAL"
	}
}

// Scorer turns collected news into a RiskAssessment.
type Scorer struct {
	client *llm.Client
	logger *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(client *llm.Client, logger *slog.Logger) *Scorer {
	return &Scorer{client: client, logger: Logger(logger, NameAnalyst)}
}

// Score asks the model to rate the risk described by signal. An empty
// signal returns ErrNoSignal without calling the model.
func (s *Scorer) Score(ctx context.Context, dep model.Dependency, signal string) (*model.RiskAssessment, error) {
	if strings.TrimSpace(signal) == "" {
		s.logger.Warn("insufficient data for analysis", "material", dep.Material, "location", dep.Origin)
		return nil, ErrNoSignal
	}

	s.logger.Debug("risk analysis initiated", "material", dep.Material, "location", dep.Origin)

	messages := []llm.ChatMessage{llm.UserMessage(scorerPrompt(dep, signal))}
	format := llm.NewJSONSchemaFormat("risk_assessment", model.RiskAssessmentSchema.Raw())

	content, err := s.client.ChatWithFormat(ctx, messages, format)
	if err != nil {
		s.logger.Error("risk analysis failed", "material", dep.Material, "location", dep.Origin, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	assessment, err := decodeAssessment(content)
	if err != nil {
		s.logger.Error("risk analysis returned malformed output", "material", dep.Material, "location", dep.Origin, "error", err)
		return nil, err
	}

	s.logThreat(ctx, dep, assessment)
	return assessment, nil
}

func decodeAssessment(content string) (*model.RiskAssessment, error) {
	raw, err := jsonutil.ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	assessment, err := schema.Decode[model.RiskAssessment](model.RiskAssessmentSchema, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &assessment, nil
}

func (s *Scorer) logThreat(ctx context.Context, dep model.Dependency, a *model.RiskAssessment) {
	attrs := []any{"material", dep.Material, "location", dep.Origin, "score", a.Score}
	switch level := ThreatLevel(a.Score); level {
	case "NONE":
		s.logger.Warn("no relevant data found, broader search recommended", attrs...)
	case "CRITICAL":
		logging.Critical(ctx, s.logger, "risk score computed", append(attrs, "threat", level)...)
	case "ELEVATED":
		s.logger.Warn("risk score computed", append(attrs, "threat", level)...)
	default:
		s.logger.Info("risk score computed", append(attrs, "threat", level)...)
	}
}
