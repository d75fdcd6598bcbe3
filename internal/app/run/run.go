// Package run drives one validation run: load rules, narrow them, load
// samples, evaluate, write the report.
package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/SignalGuard/internal/adapters/selector"
	"github.com/ghalamif/SignalGuard/internal/app/engine"
	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// Inputs are the collaborators of a run. Selector, Sink and Obs are
// optional; use sink.Multi to write to several sinks.
type Inputs struct {
	Rules    ports.RuleLoader
	Samples  ports.SampleLoader
	Selector ports.RuleSelector
	Sink     ports.ReportSink
	Obs      ports.Observability

	// RunID overrides the generated run identifier.
	RunID string
	Now   func() time.Time
}

func (in *Inputs) defaults() error {
	if in.Rules == nil {
		return errors.New("rule loader is required")
	}
	if in.Samples == nil {
		return errors.New("sample loader is required")
	}
	if in.Obs == nil {
		in.Obs = ports.NopObservability{}
	}
	if in.Now == nil {
		in.Now = time.Now
	}
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
	return nil
}

// Execute performs the run. Any load failure aborts before the sink is
// touched. A sink failure is returned together with the report.
func Execute(ctx context.Context, in Inputs) (*domain.Report, error) {
	if err := in.defaults(); err != nil {
		return nil, err
	}
	started := in.Now()

	set, err := LoadRules(ctx, in.Rules, in.Selector, in.Obs)
	if err != nil {
		return nil, err
	}

	eng, err := engine.FromRuleSet(set, engine.WithObservability(in.Obs))
	if err != nil {
		return nil, err
	}

	samples, err := timedLoad(in.Obs, "samples", in.Samples.Source(), func() ([]domain.Sample, error) {
		return in.Samples.LoadSamples(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load samples from %s: %w", in.Samples.Source(), err)
	}

	stats := eng.Run(samples)

	report := &domain.Report{
		RunID:        in.RunID,
		StartedAt:    started,
		FinishedAt:   in.Now(),
		RuleSource:   in.Rules.Source(),
		SampleSource: in.Samples.Source(),
		Processed:    stats.Processed,
		Skipped:      stats.Skipped,
		Verdicts:     eng.Report(),
	}
	in.Obs.LogInfo("run_completed",
		ports.Field{Key: "run_id", Value: report.RunID},
		ports.Field{Key: "signals", Value: len(report.Verdicts)},
		ports.Field{Key: "failed", Value: report.FailedCount()},
		ports.Field{Key: "processed", Value: report.Processed},
		ports.Field{Key: "skipped", Value: report.Skipped},
	)

	if in.Sink == nil {
		return report, nil
	}
	if err := in.Sink.Write(ctx, report); err != nil {
		in.Obs.LogError("sink_write_failed", err, ports.Field{Key: "sink", Value: in.Sink.Name()})
		return report, err
	}
	return report, nil
}

// LoadRules loads a rule set and applies the optional selector.
func LoadRules(ctx context.Context, loader ports.RuleLoader, sel ports.RuleSelector, obs ports.Observability) (*domain.RuleSet, error) {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	set, err := timedLoad(obs, "rules", loader.Source(), func() (*domain.RuleSet, error) {
		return loader.LoadRules(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", loader.Source(), err)
	}
	if sel == nil {
		return set, nil
	}

	selected, err := selector.Apply(set, sel)
	if err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	obs.LogInfo("rules_selected",
		ports.Field{Key: "loaded", Value: set.Len()},
		ports.Field{Key: "selected", Value: selected.Len()},
	)
	return selected, nil
}

func timedLoad[T any](obs ports.Observability, kind, source string, load func() (T, error)) (T, error) {
	start := time.Now()
	v, err := load()
	obs.ObserveLatency(ports.MetricLoadDuration, time.Since(start).Seconds())
	if err != nil {
		obs.IncCounter(ports.MetricLoadErrors, 1)
		obs.LogError(kind+"_load_failed", err, ports.Field{Key: "source", Value: source})
	}
	return v, err
}
