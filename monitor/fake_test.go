package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/richinex/supplysentinel/alert"
	"github.com/richinex/supplysentinel/model"
)

// fakeCollector returns per-material signals; broad lookups use the
// "broad:" prefix as key.
type fakeCollector struct {
	mu      sync.Mutex
	signals map[string]string
	calls   []string
}

func (c *fakeCollector) Collect(ctx context.Context, dep model.Dependency) (string, error) {
	return c.lookup(dep.Material)
}

func (c *fakeCollector) CollectBroad(ctx context.Context, dep model.Dependency) (string, error) {
	return c.lookup("broad:" + dep.Material)
}

func (c *fakeCollector) lookup(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, key)
	s, ok := c.signals[key]
	if !ok {
		return "", errors.New("search failed")
	}
	return s, nil
}

// fakeScorer maps a signal to a score.
type fakeScorer struct {
	mu     sync.Mutex
	scores map[string]float64
	calls  int
}

func (s *fakeScorer) Score(ctx context.Context, dep model.Dependency, signal string) (*model.RiskAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	score, ok := s.scores[signal]
	if !ok {
		return nil, errors.New("malformed")
	}
	return &model.RiskAssessment{Score: score, Reason: signal, ActionNeeded: score >= alert.Threshold}, nil
}

type gateCall struct {
	dep        model.Dependency
	assessment *model.RiskAssessment
}

type fakeGate struct {
	mu       sync.Mutex
	calls    []gateCall
	outcomes map[string]alert.Outcome
}

func (g *fakeGate) Evaluate(ctx context.Context, dep model.Dependency, a *model.RiskAssessment) (alert.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gateCall{dep, a})
	if o, ok := g.outcomes[dep.Material]; ok {
		return o, nil
	}
	switch {
	case a == nil:
		return alert.OutcomeNoRisk, nil
	case a.Score >= alert.Threshold:
		return alert.OutcomeAlerted, nil
	default:
		return alert.OutcomeMonitored, nil
	}
}
