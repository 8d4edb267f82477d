package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/richinex/supplysentinel/alert"
	"github.com/richinex/supplysentinel/llm"
	"github.com/richinex/supplysentinel/model"
)

func TestDriverHooksUpdateMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	hooks := m.DriverHooks()

	hooks.OnDependency(DependencyResult{
		Dependency: steel,
		Assessment: &model.RiskAssessment{Score: 8},
		Outcome:    alert.OutcomeAlerted,
		Retried:    true,
	})
	hooks.OnDependency(DependencyResult{Dependency: rubber, Outcome: alert.OutcomeNoRisk})

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	hooks.OnCycle(CycleReport{StartedAt: start, CompletedAt: start.Add(3 * time.Second)})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DependenciesTotal.WithLabelValues("alerted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DependenciesTotal.WithLabelValues("no_risk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal))
	assert.Equal(t, float64(start.Add(3*time.Second).Unix()), testutil.ToFloat64(m.LastCycleTimestamp))
}

func TestLLMHooksUpdateMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	hooks := m.LLMHooks()

	hooks.OnCall(llm.CallEvent{Kind: llm.CallSearch, Duration: time.Second, Usage: &llm.TokenUsage{TotalTokens: 120}})
	hooks.OnCall(llm.CallEvent{Kind: llm.CallJSON, Err: errors.New("boom")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("search", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("json", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.LLMTokens))
}
