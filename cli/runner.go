// Package cli provides the command runners behind the sentinel CLI.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/yaml.v3"

	"github.com/richinex/supplysentinel/agent"
	"github.com/richinex/supplysentinel/alert"
	"github.com/richinex/supplysentinel/config"
	"github.com/richinex/supplysentinel/llm"
	"github.com/richinex/supplysentinel/logging"
	"github.com/richinex/supplysentinel/model"
	"github.com/richinex/supplysentinel/monitor"
	"github.com/richinex/supplysentinel/notify"
	"github.com/richinex/supplysentinel/storage"
)

// Options holds CLI options shared by every command.
type Options struct {
	Settings config.Settings

	// In is read by interactive prompts. Defaults to os.Stdin.
	In io.Reader
	// Out receives command output and alert banners. Defaults to os.Stdout.
	Out io.Writer
	// Log receives console log records. Defaults to os.Stderr.
	Log io.Writer
}

func (o Options) in() io.Reader {
	if o.In == nil {
		return os.Stdin
	}
	return o.In
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// MonitorOptions holds flags specific to the monitor command.
type MonitorOptions struct {
	// Debug runs a single cycle.
	Debug bool
	// Tail prints the last Tail log records when monitoring stops.
	Tail int
}

// providerFactory builds the reasoning backend. Tests replace it.
var providerFactory = createProvider

// Map runs the dependency interview and saves the accepted map.
// An empty description prompts for one on In.
func Map(ctx context.Context, description string, assumeYes bool, opts Options) error {
	logger, closeLog, err := newLogger(opts, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	provider, err := providerFactory(opts.Settings)
	if err != nil {
		return err
	}
	mapper := agent.NewMapper(llm.NewClient(provider), logger)

	return runMap(ctx, mapper, description, assumeYes, opts)
}

type dependencyMapper interface {
	Map(ctx context.Context, description string) ([]model.Dependency, error)
}

var errNoDescription = errors.New("no business description provided")

func runMap(ctx context.Context, mapper dependencyMapper, description string, assumeYes bool, opts Options) error {
	in := bufio.NewReader(opts.in())
	out := opts.out()
	path := opts.Settings.Files.Suppliers

	for {
		description = strings.TrimSpace(description)
		if description == "" {
			d, err := promptDescription(in, out)
			if err != nil {
				return err
			}
			description = d
		}

		fmt.Fprintf(out, "\nMapping supply chain for: %s\n", description)
		deps, err := mapper.Map(ctx, description)
		if err != nil {
			return fmt.Errorf("failed to map dependencies: %w", err)
		}
		if len(deps) == 0 {
			return errors.New("failed to map dependencies: no dependencies returned")
		}
		printDependencies(out, deps)

		if !assumeYes {
			answer, err := prompt(in, out, "\nPress Enter to save, 'retry' to describe the business again, or 'quit' to exit: ")
			if err != nil {
				return err
			}
			switch strings.ToLower(answer) {
			case "retry", "r":
				description = ""
				continue
			case "quit", "q", "exit":
				fmt.Fprintln(out, "Nothing saved.")
				return nil
			}
		}

		if err := monitor.SaveDependencies(path, deps); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %d dependencies to %s\n", len(deps), path)
		return nil
	}
}

func promptDescription(in *bufio.Reader, out io.Writer) (string, error) {
	for {
		answer, err := prompt(in, out, "Describe your business (e.g. 'a coffee roaster in Seattle'): ")
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintln(out, "Please enter a description.")
	}
}

// prompt writes question and reads one trimmed line. A final line without a
// newline is accepted; end of input with nothing read is errNoDescription.
func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errNoDescription
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printDependencies(out io.Writer, deps []model.Dependency) {
	fmt.Fprintf(out, "\nIdentified %d dependencies:\n", len(deps))
	for i, d := range deps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, d)
	}
}

// Monitor runs the monitoring loop until ctx is cancelled, or one cycle in
// debug mode.
func Monitor(ctx context.Context, mopts MonitorOptions, opts Options) error {
	s := opts.Settings

	var tail *logging.Ring
	if mopts.Tail > 0 {
		tail = logging.NewRing(mopts.Tail)
	}
	logger, closeLog, err := newLogger(opts, tail)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	deps, err := monitor.LoadDependencies(s.Files.Suppliers)
	if err != nil {
		logger.Error("cannot start monitoring", "error", err)
		return err
	}

	provider, err := providerFactory(s)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(reg)
	client := llm.NewClient(provider).WithHooks(metrics.LLMHooks())

	history, err := alert.LoadHistory(s.Files.History)
	if err != nil {
		logger.Warn("alert history unreadable, starting with an empty history", "path", s.Files.History, "error", err)
	}

	notifier := notify.Multi{
		notify.NewConsole(opts.out()),
		notify.NewWebhook(s.Monitor.WebhookURL),
	}
	gate := alert.NewGate(history, notifier, agent.Logger(logger, agent.NameDispatcher))

	store, closeStore := openStorage(s.Files.Database, logger)
	defer func() { _ = closeStore() }()

	driver := monitor.NewDriver(
		agent.NewCollector(client, logger),
		agent.NewScorer(client, logger),
		gate,
		monitor.Options{
			Pacing:   s.Monitor.Pacing,
			Interval: s.Monitor.Interval,
			Debug:    mopts.Debug,
		},
		logger,
	).WithStorage(store).WithHooks(metrics.DriverHooks())

	if s.Monitor.MetricsAddr != "" {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		go func() {
			if err := monitor.ServeMetrics(ctx, s.Monitor.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	logger.Info("monitoring started",
		"dependencies", len(deps),
		"provider", provider.Name(),
		"model", provider.Model(),
		"alerts_on_record", history.Len(),
		"debug", mopts.Debug,
	)

	runErr := driver.Run(ctx, deps)

	if tail != nil {
		printTail(opts.out(), tail)
	}
	return runErr
}

// openStorage opens the statistics database, falling back to memory when
// it cannot be opened. Statistics never block monitoring.
func openStorage(path string, logger *slog.Logger) (storage.ScanStorage, func() error) {
	if path == "" {
		return storage.NewInMemoryStorage(), func() error { return nil }
	}
	db, err := storage.OpenSqlite(path)
	if err != nil {
		logger.Warn("scan statistics kept in memory only", "path", path, "error", err)
		return storage.NewInMemoryStorage(), func() error { return nil }
	}
	return db, db.Close
}

func printTail(out io.Writer, tail *logging.Ring) {
	lines := tail.Lines()
	fmt.Fprintf(out, "\n--- Last %d log records ---\n", len(lines))
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

// History lists the alert keys recorded in the history file.
func History(opts Options) error {
	out := opts.out()
	path := opts.Settings.Files.History

	h, err := alert.LoadHistory(path)
	if err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}

	keys := h.Keys()
	if len(keys) == 0 {
		fmt.Fprintf(out, "No alerts recorded in %s\n", path)
		return nil
	}

	fmt.Fprintf(out, "Alerts sent (%d):\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(out, "  - %s\n", k)
	}
	return nil
}

// Stats prints the scan summary and the most recent scans. With reset it
// clears the statistics instead.
func Stats(ctx context.Context, limit int, reset bool, opts Options) error {
	out := opts.out()

	db, err := storage.OpenSqlite(opts.Settings.Files.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return printStats(ctx, db, limit, reset, out)
}

func printStats(ctx context.Context, store storage.ScanStorage, limit int, reset bool, out io.Writer) error {
	if reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Scan statistics cleared.")
		return nil
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		return err
	}
	if summary.Scans == 0 {
		fmt.Fprintln(out, "No scans recorded yet.")
		return nil
	}

	fmt.Fprintln(out, "=== Scan Statistics ===")
	fmt.Fprintf(out, "Scans:             %d\n", summary.Scans)
	fmt.Fprintf(out, "Suppliers scanned: %d\n", summary.TotalScanned)
	fmt.Fprintf(out, "Critical findings: %d\n", summary.TotalCritical)
	fmt.Fprintf(out, "Average risk:      %.1f/10\n", summary.AvgRisk)
	fmt.Fprintf(out, "Last scan:         %s\n", summary.LastScan.Local().Format(time.DateTime))

	recent, err := store.RecentScans(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nRecent scans:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CYCLE\tSTARTED\tSCANNED\tSAFE\tCRITICAL\tSKIPPED\tSUPPRESSED\tAVG RISK")
	for _, r := range recent {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%.1f\n",
			r.Cycle,
			r.StartedAt.Local().Format(time.DateTime),
			r.Suppliers,
			r.Safe,
			r.Critical,
			r.Skipped,
			r.Suppressed,
			r.AvgRisk,
		)
	}
	return tw.Flush()
}

// configView is the printable form of Settings.
type configView struct {
	config.Settings `yaml:",inline"`
	APIKey          apiKeyView `yaml:"api_key"`
}

type apiKeyView struct {
	Env    string `yaml:"env"`
	Status string `yaml:"status"`
}

// ShowConfig prints the effective settings as YAML. API keys are never
// printed, only whether their variable is set.
func ShowConfig(opts Options) error {
	s := opts.Settings

	env, err := config.APIKeyEnvFor(s.LLM.Provider)
	if err != nil {
		return err
	}
	status := "not set"
	if _, err := config.APIKeyFor(s.LLM.Provider); err == nil {
		status = "set"
	}

	data, err := yaml.Marshal(configView{
		Settings: s,
		APIKey:   apiKeyView{Env: env, Status: status},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	out := opts.out()
	fmt.Fprintln(out, "# Effective configuration")
	_, err = out.Write(data)
	return err
}

func newLogger(opts Options, tail *logging.Ring) (*slog.Logger, func() error, error) {
	return logging.New(logging.Options{
		Console:  opts.Log,
		Verbose:  opts.Settings.Verbose,
		FilePath: opts.Settings.Files.Log,
		Tail:     tail,
	})
}

// createProvider creates an LLM provider from settings.
func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}
