package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richinex/supplysentinel/llm"
)

// Metrics holds Prometheus metrics for monitoring runs.
type Metrics struct {
	CyclesTotal        prometheus.Counter
	CycleDuration      prometheus.Histogram
	DependenciesTotal  *prometheus.CounterVec
	RetriesTotal       prometheus.Counter
	RiskScore          prometheus.Histogram
	LastCycleTimestamp prometheus.Gauge
	LLMCallsTotal      *prometheus.CounterVec
	LLMDuration        *prometheus.HistogramVec
	LLMTokens          prometheus.Counter
}

// NewMetrics registers and returns monitoring metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_cycles_total",
			Help: "Total monitoring cycles completed.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Duration of monitoring cycles in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~512s
		}),
		DependenciesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_dependencies_total",
			Help: "Dependencies scanned by gate outcome.",
		}, []string{"outcome"}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_broadened_searches_total",
			Help: "Broadened searches issued after a zero score.",
		}),
		RiskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_risk_score",
			Help:    "Risk scores produced by the analyst.",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 .. 10
		}),
		LastCycleTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle completed.",
		}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_llm_calls_total",
			Help: "Total LLM provider calls by kind and status.",
		}, []string{"kind", "status"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}, []string{"kind"}),
		LLMTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_llm_tokens_total",
			Help: "Total LLM tokens consumed.",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.DependenciesTotal,
		m.RetriesTotal,
		m.RiskScore,
		m.LastCycleTimestamp,
		m.LLMCallsTotal,
		m.LLMDuration,
		m.LLMTokens,
	)

	return m
}

// DriverHooks returns hooks that update the cycle and dependency metrics.
func (m *Metrics) DriverHooks() DriverHooks {
	return DriverHooks{
		OnDependency: func(r DependencyResult) {
			m.DependenciesTotal.WithLabelValues(string(r.Outcome)).Inc()
			if r.Retried {
				m.RetriesTotal.Inc()
			}
			if r.Assessment != nil {
				m.RiskScore.Observe(r.Assessment.Score)
			}
		},
		OnCycle: func(r CycleReport) {
			m.CyclesTotal.Inc()
			m.CycleDuration.Observe(r.CompletedAt.Sub(r.StartedAt).Seconds())
			m.LastCycleTimestamp.Set(float64(r.CompletedAt.Unix()))
		},
	}
}

// LLMHooks returns hooks that update the LLM call metrics.
func (m *Metrics) LLMHooks() llm.Hooks {
	return llm.Hooks{
		OnCall: func(e llm.CallEvent) {
			status := "success"
			if e.Err != nil {
				status = "error"
			}
			m.LLMCallsTotal.WithLabelValues(string(e.Kind), status).Inc()
			m.LLMDuration.WithLabelValues(string(e.Kind)).Observe(e.Duration.Seconds())
			if e.Usage != nil {
				m.LLMTokens.Add(float64(e.Usage.TotalTokens))
			}
		},
	}
}

// ServeMetrics serves /metrics from gatherer on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
		return nil
	}
}
