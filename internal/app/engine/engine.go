package engine

import (
	"sort"
	"time"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// Engine runs one validation pass: one Validator per rule, samples dispatched
// in timestamp order.
type Engine struct {
	order      []string
	validators map[string]*Validator
	obs        ports.Observability
}

// RunStats summarises a Run call.
type RunStats struct {
	Processed int
	Skipped   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithObservability routes engine logs and metrics to obs.
func WithObservability(obs ports.Observability) Option {
	return func(e *Engine) {
		if obs != nil {
			e.obs = obs
		}
	}
}

// New registers one validator per rule, in order. A repeated signal name is
// rejected with a *domain.DuplicateSignalRuleError.
func New(rules []domain.Rule, opts ...Option) (*Engine, error) {
	e := &Engine{
		order:      make([]string, 0, len(rules)),
		validators: make(map[string]*Validator, len(rules)),
		obs:        ports.NopObservability{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	for _, r := range rules {
		if _, exists := e.validators[r.Signal]; exists {
			return nil, &domain.DuplicateSignalRuleError{Signal: r.Signal}
		}
		e.validators[r.Signal] = NewValidatorFromRule(r)
		e.order = append(e.order, r.Signal)
	}
	e.obs.SetGauge(ports.MetricSignalsMonitored, float64(len(e.order)))
	return e, nil
}

// FromRuleSet is New over a loaded rule set.
func FromRuleSet(set *domain.RuleSet, opts ...Option) (*Engine, error) {
	return New(set.Rules(), opts...)
}

// Run sorts a copy of samples by timestamp and feeds each one to the
// validator for its signal. Samples for unmonitored signals are skipped.
func (e *Engine) Run(samples []domain.Sample) RunStats {
	start := time.Now()

	sorted := make([]domain.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var stats RunStats
	for _, s := range sorted {
		v, ok := e.Validator(s.Signal)
		if !ok {
			stats.Skipped++
			continue
		}
		before := v.State()
		v.ProcessSample(s.Timestamp, s.Value)
		stats.Processed++
		if before != StateFailed && v.State() == StateFailed {
			e.obs.LogInfo("signal_failed",
				ports.Field{Key: "signal", Value: v.name},
				ports.Field{Key: "violation_start", Value: v.violationStart},
				ports.Field{Key: "confirmed_at", Value: v.failedAt})
		}
	}

	// Streaks still open at the end of the log never reached their delay.
	for _, name := range e.order {
		if start, open := e.validators[name].ViolationStart(); open {
			e.obs.LogInfo("signal_violation_open",
				ports.Field{Key: "signal", Value: name},
				ports.Field{Key: "violation_start", Value: start})
		}
	}

	e.obs.IncCounter(ports.MetricSamplesProcessed, float64(stats.Processed))
	e.obs.IncCounter(ports.MetricSamplesSkipped, float64(stats.Skipped))
	e.obs.SetGauge(ports.MetricSignalsFailed, float64(e.failedCount()))
	e.obs.ObserveLatency(ports.MetricRunDuration, time.Since(start).Seconds())
	return stats
}

// Report returns one verdict per registered signal in rule order.
func (e *Engine) Report() []domain.Verdict {
	out := make([]domain.Verdict, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.validators[name].Verdict())
	}
	return out
}

// Validator returns the validator for a signal.
func (e *Engine) Validator(signal string) (*Validator, bool) {
	v, ok := e.validators[signal]
	return v, ok
}

func (e *Engine) failedCount() int {
	n := 0
	for _, v := range e.validators {
		if v.failed {
			n++
		}
	}
	return n
}
