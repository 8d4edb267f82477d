package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/supplysentinel/model"
)

// Threshold is the score at or above which an alert is raised.
const Threshold = 7

// Outcome is what the gate did with one assessment.
type Outcome string

const (
	OutcomeNoRisk     Outcome = "no_risk"
	OutcomeMonitored  Outcome = "monitored"
	OutcomeAlerted    Outcome = "alerted"
	OutcomeSuppressed Outcome = "suppressed"
)

// Notifier delivers an alert.
type Notifier interface {
	Notify(ctx context.Context, a model.Alert) error
}

// Gate emits at most one alert per dependency per calendar day.
type Gate struct {
	history  *History
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewGate creates a Gate.
func NewGate(history *History, notifier Notifier, logger *slog.Logger) *Gate {
	return &Gate{
		history:  history,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source used for keys.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// History returns the gate's history.
func (g *Gate) History() *History {
	return g.history
}

// Evaluate applies the gate to one assessment. The checks run in order: a nil
// assessment is no risk; a key already recorded today is suppressed; a score
// at or above Threshold notifies, records the key and saves the history.
//
// A notification failure is logged and does not stop the key from being
// recorded. A save failure is returned with OutcomeAlerted; the key stays in
// memory so this process still suppresses repeats.
func (g *Gate) Evaluate(ctx context.Context, dep model.Dependency, assessment *model.RiskAssessment) (Outcome, error) {
	if assessment == nil {
		return OutcomeNoRisk, nil
	}

	now := g.now()
	key := Key(dep, now)
	if g.history.Contains(key) {
		g.logger.Info("alert already sent today", "material", dep.Material, "location", dep.Origin, "key", key)
		return OutcomeSuppressed, nil
	}

	if assessment.Score < Threshold {
		return OutcomeMonitored, nil
	}

	alert := model.Alert{
		Dependency: dep,
		Assessment: *assessment,
		Key:        key,
		RaisedAt:   now,
	}
	if err := g.notifier.Notify(ctx, alert); err != nil {
		g.logger.Error("alert delivery failed", "material", dep.Material, "location", dep.Origin, "error", err)
	}

	g.history.Add(key)
	if err := g.history.Save(); err != nil {
		g.logger.Error("failed to save alert history", "path", g.history.Path(), "error", err)
		return OutcomeAlerted, fmt.Errorf("failed to save alert history: %w", err)
	}

	g.logger.Warn("alert dispatched", "material", dep.Material, "location", dep.Origin, "key", key, "score", assessment.Score)
	return OutcomeAlerted, nil
}
