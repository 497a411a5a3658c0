// Package metrics exposes the reminder loop's counters to Prometheus.
package metrics

import (
	"net/http"

	"sunset_reminder_bot/internal/domain/reminder"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Recorder records loop activity. A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg        *prom.Registry
	dispatches *prom.CounterVec
	missed     prom.Counter
	tickErrors *prom.CounterVec
	loopState  *prom.GaugeVec
	ticks      prom.Counter
}

// NewRecorder constructs and registers the metrics on reg (a fresh registry
// when nil).
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{reg: reg}
	r.dispatches = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sunset_reminder",
		Name:      "dispatches_total",
		Help:      "Notification dispatches by kind and result",
	}, []string{"kind", "result"})
	r.missed = prom.NewCounter(prom.CounterOpts{
		Namespace: "sunset_reminder",
		Name:      "missed_warning_windows_total",
		Help:      "Sunset warning windows that passed without a dispatch",
	})
	r.tickErrors = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sunset_reminder",
		Name:      "tick_errors_total",
		Help:      "Loop tick errors by class",
	}, []string{"class"})
	r.loopState = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "sunset_reminder",
		Name:      "loop_state",
		Help:      "1 for the reminder loop's current state, 0 otherwise",
	}, []string{"state"})
	r.ticks = prom.NewCounter(prom.CounterOpts{
		Namespace: "sunset_reminder",
		Name:      "ticks_total",
		Help:      "Reminder loop ticks evaluated",
	})
	reg.MustRegister(r.dispatches, r.missed, r.tickErrors, r.loopState, r.ticks)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return r
}

func (r *Recorder) IncDispatch(kind reminder.DispatchKind, result string) {
	if r == nil {
		return
	}
	r.dispatches.WithLabelValues(string(kind), result).Inc()
}

func (r *Recorder) IncMissedWindow() {
	if r == nil {
		return
	}
	r.missed.Inc()
}

func (r *Recorder) IncTickError(class string) {
	if r == nil {
		return
	}
	r.tickErrors.WithLabelValues(class).Inc()
}

func (r *Recorder) IncTick() {
	if r == nil {
		return
	}
	r.ticks.Inc()
}

// SetState flips the state gauge so exactly one state reads 1.
func (r *Recorder) SetState(state reminder.LoopState) {
	if r == nil {
		return
	}
	for _, s := range reminder.AllStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.loopState.WithLabelValues(string(s)).Set(v)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
