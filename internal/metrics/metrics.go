// Package metrics exposes prometheus collectors for chat turns, tool calls
// and provider health. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ksfoundation/oneshot/internal/agent"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/tools"
)

type Metrics struct {
	chatDuration  *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	providerUp    *prometheus.GaugeVec
	scheduledRuns *prometheus.CounterVec
}

// New registers the collectors on registerer (the default registerer when nil).
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		chatDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oneshot_chat_duration_seconds",
				Help:    "Duration of chat turns in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "backend", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oneshot_tool_calls_total",
				Help: "Total number of tool invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oneshot_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 30, 120},
			},
			[]string{"tool"},
		),
		providerUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oneshot_provider_up",
				Help: "Whether an external tool provider answered its last ping",
			},
			[]string{"provider"},
		),
		scheduledRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oneshot_scheduled_runs_total",
				Help: "Total number of scheduled prompt runs by status",
			},
			[]string{"schedule", "status"},
		),
	}
}

// ObserveTurn records a finished chat turn.
func (m *Metrics) ObserveTurn(_ context.Context, t agent.Turn) {
	if m == nil {
		return
	}
	m.chatDuration.WithLabelValues(t.Provider, t.Kind.String(), status(t.Err)).Observe(t.Elapsed.Seconds())
}

// ObserveTool records one tool invocation.
func (m *Metrics) ObserveTool(tool string, outcome schema.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, string(outcome)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// SetProviderUp records the result of a provider ping.
func (m *Metrics) SetProviderUp(provider string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.providerUp.WithLabelValues(provider).Set(v)
}

// ForgetProvider drops the gauge for a provider that was removed.
func (m *Metrics) ForgetProvider(provider string) {
	if m == nil {
		return
	}
	m.providerUp.DeleteLabelValues(provider)
}

// ObserveScheduledRun records one scheduled prompt run.
func (m *Metrics) ObserveScheduledRun(schedule string, err error) {
	if m == nil {
		return
	}
	m.scheduledRuns.WithLabelValues(schedule, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var (
	_ agent.TurnObserver = (*Metrics)(nil)
	_ tools.Recorder     = (*Metrics)(nil)
)
