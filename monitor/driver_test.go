package monitor

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/supplysentinel/alert"
	"github.com/richinex/supplysentinel/logging"
	"github.com/richinex/supplysentinel/model"
	"github.com/richinex/supplysentinel/notify"
	"github.com/richinex/supplysentinel/storage"
)

var (
	steel  = model.Dependency{Material: "Steel", Origin: "China"}
	rubber = model.Dependency{Material: "Rubber", Origin: "Thailand"}
	copper = model.Dependency{Material: "Copper", Origin: "Chile"}
)

func newTestDriver(c Collector, s Scorer, g Gate, opts Options) *Driver {
	return NewDriver(c, s, g, opts, logging.Discard())
}

func TestRunCycleEmptyListMakesNoCalls(t *testing.T) {
	c := &fakeCollector{}
	s := &fakeScorer{}
	g := &fakeGate{}

	report := newTestDriver(c, s, g, Options{Debug: true}).RunCycle(context.Background(), 1, nil)

	assert.Zero(t, report.Scanned)
	assert.Empty(t, c.calls)
	assert.Zero(t, s.calls)
	assert.Empty(t, g.calls)
}

func TestRunCycleCountsOutcomes(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{
		"Steel":  "strike",
		"Rubber": "calm",
		// Copper search fails
	}}
	s := &fakeScorer{scores: map[string]float64{"strike": 8, "calm": 2}}
	g := &fakeGate{}
	store := storage.NewInMemoryStorage()

	d := newTestDriver(c, s, g, Options{}).WithStorage(store)
	report := d.RunCycle(context.Background(), 1, []model.Dependency{steel, copper, rubber})

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Critical)
	assert.Equal(t, 1, report.Safe)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []float64{8, 2}, report.Scores)
	assert.NotEmpty(t, report.ID)

	// Order preserved and the failed dependency still reaches the gate as nil.
	require.Len(t, g.calls, 3)
	assert.Equal(t, steel, g.calls[0].dep)
	assert.Equal(t, copper, g.calls[1].dep)
	assert.Nil(t, g.calls[1].assessment)
	assert.Equal(t, rubber, g.calls[2].dep)

	assert.Equal(t, alert.OutcomeAlerted, report.Results[0].Outcome)
	assert.Error(t, report.Results[1].Err)

	recent, err := store.RecentScans(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, report.ID, recent[0].ID)
	assert.Equal(t, 5.0, recent[0].AvgRisk)
}

func TestRunCycleCountsSuppressed(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "strike"}}
	s := &fakeScorer{scores: map[string]float64{"strike": 9}}
	g := &fakeGate{outcomes: map[string]alert.Outcome{"Steel": alert.OutcomeSuppressed}}

	report := newTestDriver(c, s, g, Options{}).RunCycle(context.Background(), 1, []model.Dependency{steel})
	assert.Equal(t, 1, report.Suppressed)
	assert.Equal(t, 1, report.Critical)
}

func TestZeroScoreTriggersOneBroadRetry(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{
		"Steel":       "nothing local",
		"broad:Steel": "global shortage",
	}}
	s := &fakeScorer{scores: map[string]float64{"nothing local": 0, "global shortage": 6}}
	g := &fakeGate{}

	report := newTestDriver(c, s, g, Options{}).RunCycle(context.Background(), 1, []model.Dependency{steel})

	assert.Equal(t, []string{"Steel", "broad:Steel"}, c.calls)
	assert.Equal(t, 2, s.calls)
	require.Len(t, g.calls, 1)
	assert.Equal(t, 6.0, g.calls[0].assessment.Score)
	assert.True(t, report.Results[0].Retried)
}

func TestZeroScoreKeptWhenRetryFails(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "nothing local"}}
	s := &fakeScorer{scores: map[string]float64{"nothing local": 0}}
	g := &fakeGate{}

	report := newTestDriver(c, s, g, Options{}).RunCycle(context.Background(), 1, []model.Dependency{steel})

	assert.Equal(t, []string{"Steel", "broad:Steel"}, c.calls)
	require.Len(t, g.calls, 1)
	require.NotNil(t, g.calls[0].assessment)
	assert.Zero(t, g.calls[0].assessment.Score)
	assert.Equal(t, 1, report.Safe)
}

func TestNonZeroScoreDoesNotRetry(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "calm"}}
	s := &fakeScorer{scores: map[string]float64{"calm": 0.5}}

	newTestDriver(c, s, &fakeGate{}, Options{}).RunCycle(context.Background(), 1, []model.Dependency{steel})
	assert.Equal(t, []string{"Steel"}, c.calls)
}

func TestRunDebugStopsAfterOneCycle(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "calm"}}
	s := &fakeScorer{scores: map[string]float64{"calm": 1}}
	var cycles int

	d := newTestDriver(c, s, &fakeGate{}, Options{Debug: true}).
		WithHooks(DriverHooks{OnCycle: func(CycleReport) { cycles++ }})

	require.NoError(t, d.Run(context.Background(), []model.Dependency{steel}))
	assert.Equal(t, 1, cycles)
}

func TestRunStopsOnCancelDuringSleep(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "calm"}}
	s := &fakeScorer{scores: map[string]float64{"calm": 1}}

	ctx, cancel := context.WithCancel(context.Background())
	d := newTestDriver(c, s, &fakeGate{}, Options{Interval: time.Hour}).
		WithHooks(DriverHooks{OnCycle: func(CycleReport) { cancel() }})

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, []model.Dependency{steel}) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Len(t, c.calls, 1)
}

func TestRunCycleStopsWhenCancelled(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "calm", "Rubber": "calm"}}
	s := &fakeScorer{scores: map[string]float64{"calm": 1}}

	ctx, cancel := context.WithCancel(context.Background())
	d := newTestDriver(c, s, &fakeGate{}, Options{Pacing: time.Hour}).
		WithHooks(DriverHooks{OnDependency: func(DependencyResult) { cancel() }})

	report := d.RunCycle(ctx, 1, []model.Dependency{steel, rubber})
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, []string{"Steel"}, c.calls)
}

func TestCriticalAlertPrintedOncePerDay(t *testing.T) {
	c := &fakeCollector{signals: map[string]string{"Steel": "strike"}}
	s := &fakeScorer{scores: map[string]float64{"strike": 8}}

	path := filepath.Join(t.TempDir(), "alert_history.json")
	history, err := alert.LoadHistory(path)
	require.NoError(t, err)

	var out bytes.Buffer
	jan15 := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gate := alert.NewGate(history, notify.NewConsole(&out), logging.Discard()).
		WithClock(func() time.Time { return jan15 })

	d := newTestDriver(c, s, gate, Options{})
	first := d.RunCycle(context.Background(), 1, []model.Dependency{steel})
	second := d.RunCycle(context.Background(), 2, []model.Dependency{steel})

	assert.Equal(t, alert.OutcomeAlerted, first.Results[0].Outcome)
	assert.Equal(t, alert.OutcomeSuppressed, second.Results[0].Outcome)
	assert.Equal(t, 1, strings.Count(out.String(), "CRITICAL ALERT: Steel Supply Chain Risk!"))

	reloaded, err := alert.LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Steel-China-2024-01-15"}, reloaded.Keys())
}
