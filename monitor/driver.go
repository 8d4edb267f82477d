package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/richinex/supplysentinel/alert"
	"github.com/richinex/supplysentinel/model"
	"github.com/richinex/supplysentinel/storage"
)

// Defaults for Options.
const (
	DefaultPacing   = 2 * time.Second
	DefaultInterval = 24 * time.Hour
)

// Collector gathers news for a dependency.
type Collector interface {
	Collect(ctx context.Context, dep model.Dependency) (string, error)
	CollectBroad(ctx context.Context, dep model.Dependency) (string, error)
}

// Scorer rates collected news.
type Scorer interface {
	Score(ctx context.Context, dep model.Dependency, signal string) (*model.RiskAssessment, error)
}

// Gate decides whether an assessment becomes an alert.
type Gate interface {
	Evaluate(ctx context.Context, dep model.Dependency, assessment *model.RiskAssessment) (alert.Outcome, error)
}

// Options configures a Driver.
type Options struct {
	// Pacing separates consecutive dependencies. Zero disables pacing.
	Pacing time.Duration
	// Interval separates cycles.
	Interval time.Duration
	// Debug runs exactly one cycle.
	Debug bool
}

// DependencyResult is what happened to one dependency in a cycle.
type DependencyResult struct {
	Dependency model.Dependency
	Assessment *model.RiskAssessment
	Outcome    alert.Outcome
	Retried    bool
	Err        error
}

// CycleReport summarizes one pass over the dependency list.
type CycleReport struct {
	ID          string
	Number      int
	StartedAt   time.Time
	CompletedAt time.Time
	Scanned     int
	// Safe and Critical count assessed dependencies by score.
	Safe     int
	Critical int
	// Skipped counts dependencies that produced no assessment.
	Skipped int
	// Suppressed counts dependencies whose alert was already sent today.
	Suppressed int
	Scores     []float64
	Results    []DependencyResult
}

// Record converts the report into a scan record.
func (r CycleReport) Record() storage.ScanRecord {
	return storage.ScanRecord{
		ID:          r.ID,
		Cycle:       r.Number,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Suppliers:   r.Scanned,
		Safe:        r.Safe,
		Critical:    r.Critical,
		Skipped:     r.Skipped,
		Suppressed:  r.Suppressed,
		AvgRisk:     storage.AverageRisk(r.Scores),
		Scores:      append([]float64(nil), r.Scores...),
	}
}

// DriverHooks receives driver events. A nil hook is skipped.
type DriverHooks struct {
	OnDependency func(DependencyResult)
	OnCycle      func(CycleReport)
}

// Driver runs the collect, score, gate pipeline over a dependency list.
type Driver struct {
	collector Collector
	scorer    Scorer
	gate      Gate
	store     storage.ScanStorage
	hooks     DriverHooks
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewDriver creates a Driver. A zero Interval uses DefaultInterval.
func NewDriver(collector Collector, scorer Scorer, gate Gate, opts Options, logger *slog.Logger) *Driver {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	return &Driver{
		collector: collector,
		scorer:    scorer,
		gate:      gate,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// WithStorage records a scan record after every cycle.
func (d *Driver) WithStorage(store storage.ScanStorage) *Driver {
	d.store = store
	return d
}

// WithHooks sets event hooks.
func (d *Driver) WithHooks(hooks DriverHooks) *Driver {
	d.hooks = hooks
	return d
}

// Run executes cycles until ctx is cancelled, or exactly once in debug mode.
// Cancellation is a normal stop and returns nil.
func (d *Driver) Run(ctx context.Context, deps []model.Dependency) error {
	for number := 1; ; number++ {
		d.RunCycle(ctx, number, deps)

		if d.opts.Debug {
			d.logger.Info("debug mode, stopping after one cycle")
			return nil
		}
		if ctx.Err() != nil {
			d.logger.Info("monitoring stopped")
			return nil
		}

		d.logger.Info("sleeping until next cycle", "interval", d.opts.Interval, "next_cycle", number+1)
		timer := time.NewTimer(d.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info("monitoring stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle scans every dependency once, in list order. A failure on one
// dependency never affects the next. Cancelling ctx stops the cycle before
// the next dependency.
func (d *Driver) RunCycle(ctx context.Context, number int, deps []model.Dependency) CycleReport {
	report := CycleReport{
		ID:        uuid.NewString(),
		Number:    number,
		StartedAt: d.now(),
	}
	logger := d.logger.With("cycle", number, "cycle_id", report.ID)
	logger.Info("cycle started", "dependencies", len(deps))

	limit := rate.Inf
	if d.opts.Pacing > 0 {
		limit = rate.Every(d.opts.Pacing)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, dep := range deps {
		if err := limiter.Wait(ctx); err != nil {
			logger.Warn("cycle interrupted", "error", err)
			break
		}

		res := d.scan(ctx, logger, dep)
		report.Scanned++
		report.Results = append(report.Results, res)

		switch {
		case res.Assessment == nil:
			report.Skipped++
		case res.Assessment.Score >= alert.Threshold:
			report.Critical++
			report.Scores = append(report.Scores, res.Assessment.Score)
		default:
			report.Safe++
			report.Scores = append(report.Scores, res.Assessment.Score)
		}
		if res.Outcome == alert.OutcomeSuppressed {
			report.Suppressed++
		}

		if d.hooks.OnDependency != nil {
			d.hooks.OnDependency(res)
		}
	}

	report.CompletedAt = d.now()
	logger.Info("cycle complete",
		"scanned", report.Scanned,
		"safe", report.Safe,
		"critical", report.Critical,
		"skipped", report.Skipped,
		"suppressed", report.Suppressed,
	)

	if d.store != nil {
		// Recording must outlive a cancelled run context.
		if err := d.store.SaveScan(context.WithoutCancel(ctx), report.Record()); err != nil {
			logger.Error("failed to record scan", "error", err)
		}
	}
	if d.hooks.OnCycle != nil {
		d.hooks.OnCycle(report)
	}
	return report
}

func (d *Driver) scan(ctx context.Context, logger *slog.Logger, dep model.Dependency) DependencyResult {
	res := DependencyResult{Dependency: dep}
	logger = logger.With("material", dep.Material, "location", dep.Origin)
	logger.Debug("scanning dependency")

	res.Assessment, res.Err = d.assess(ctx, dep, d.collector.Collect)
	if res.Assessment != nil && res.Assessment.Score == 0 {
		res.Retried = true
		retry, err := d.assess(ctx, dep, d.collector.CollectBroad)
		if retry != nil {
			res.Assessment = retry
		} else {
			logger.Warn("broadened search produced no assessment", "error", err)
		}
	}

	outcome, err := d.gate.Evaluate(ctx, dep, res.Assessment)
	res.Outcome = outcome
	if err != nil {
		logger.Error("alert gate failed", "error", err)
		res.Err = err
	}

	if res.Assessment == nil {
		logger.Warn("dependency skipped, no assessment", "error", res.Err)
	}
	return res
}

// assess collects with collect and scores the result.
func (d *Driver) assess(ctx context.Context, dep model.Dependency, collect func(context.Context, model.Dependency) (string, error)) (*model.RiskAssessment, error) {
	signal, err := collect(ctx, dep)
	if err != nil {
		return nil, err
	}
	return d.scorer.Score(ctx, dep, signal)
}
